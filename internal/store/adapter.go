package store

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"tribeTrackerSync/internal/metrics"
	"tribeTrackerSync/internal/types/badge"
	"tribeTrackerSync/internal/types/challenge"
	"tribeTrackerSync/internal/types/checkin"
	"tribeTrackerSync/internal/types/participant"
	"tribeTrackerSync/internal/types/profile"
	"tribeTrackerSync/internal/types/syncqueue"
)

// Adapter wraps a KV with typed load/save per collection. Loads never fail:
// missing or corrupt data comes back as the empty value, logged only. Saves
// persist the full collection snapshot and report failures to the caller so
// it can log and move on; local-first means in-memory state stays the source
// of truth either way.
type Adapter struct {
	kv  KV
	log *zap.Logger
}

func NewAdapter(kv KV, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{kv: kv, log: log}
}

func loadJSON[T any](a *Adapter, key string, out *T) {
	data, ok, err := a.kv.Get(key)
	if err != nil {
		a.log.Warn("storage read failed, using empty value",
			zap.String("key", key), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		var zero T
		*out = zero
		a.log.Warn("corrupt persisted data, using empty value",
			zap.String("key", key), zap.Error(err))
	}
}

func (a *Adapter) saveJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err == nil {
		err = a.kv.Set(key, data)
	}
	if err != nil {
		metrics.PersistenceFailures.Inc()
		a.log.Error("storage write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (a *Adapter) LoadChallenges() []challenge.Challenge {
	var out []challenge.Challenge
	loadJSON(a, KeyChallenges, &out)
	return out
}

func (a *Adapter) SaveChallenges(cs []challenge.Challenge) error {
	return a.saveJSON(KeyChallenges, cs)
}

func (a *Adapter) LoadParticipants() []participant.ChallengeParticipant {
	var out []participant.ChallengeParticipant
	loadJSON(a, KeyParticipants, &out)
	return out
}

func (a *Adapter) SaveParticipants(ps []participant.ChallengeParticipant) error {
	return a.saveJSON(KeyParticipants, ps)
}

func (a *Adapter) LoadCheckins() []checkin.HabitCheckin {
	var out []checkin.HabitCheckin
	loadJSON(a, KeyCheckins, &out)
	return out
}

func (a *Adapter) SaveCheckins(cs []checkin.HabitCheckin) error {
	return a.saveJSON(KeyCheckins, cs)
}

func (a *Adapter) LoadProfile() *profile.UserProfile {
	var out *profile.UserProfile
	loadJSON(a, KeyProfile, &out)
	return out
}

func (a *Adapter) SaveProfile(p *profile.UserProfile) error {
	return a.saveJSON(KeyProfile, p)
}

func (a *Adapter) LoadPendingQueue() []syncqueue.PendingSyncItem {
	var out []syncqueue.PendingSyncItem
	loadJSON(a, KeyPendingSyncQueue, &out)
	return out
}

func (a *Adapter) SavePendingQueue(items []syncqueue.PendingSyncItem) error {
	return a.saveJSON(KeyPendingSyncQueue, items)
}

func (a *Adapter) LoadBadgeDefinitions() []badge.BadgeDefinition {
	var out []badge.BadgeDefinition
	loadJSON(a, KeyBadgeDefinitions, &out)
	return out
}

func (a *Adapter) SaveBadgeDefinitions(bs []badge.BadgeDefinition) error {
	return a.saveJSON(KeyBadgeDefinitions, bs)
}

func (a *Adapter) LoadEarnedBadges() []badge.EarnedBadge {
	var out []badge.EarnedBadge
	loadJSON(a, KeyEarnedBadges, &out)
	return out
}

func (a *Adapter) SaveEarnedBadges(bs []badge.EarnedBadge) error {
	return a.saveJSON(KeyEarnedBadges, bs)
}

func (a *Adapter) LoadChallengeOrder() []string {
	var out []string
	loadJSON(a, KeyChallengeOrder, &out)
	return out
}

func (a *Adapter) SaveChallengeOrder(order []string) error {
	return a.saveJSON(KeyChallengeOrder, order)
}

func (a *Adapter) LoadThemeMode() string {
	var out string
	loadJSON(a, KeyThemeMode, &out)
	return out
}

func (a *Adapter) SaveThemeMode(mode string) error {
	return a.saveJSON(KeyThemeMode, mode)
}

func (a *Adapter) LoadLastSync() *time.Time {
	var out *time.Time
	loadJSON(a, KeyLastSync, &out)
	return out
}

func (a *Adapter) SaveLastSync(t time.Time) error {
	return a.saveJSON(KeyLastSync, t)
}
