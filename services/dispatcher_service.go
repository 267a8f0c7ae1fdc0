package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tribeTrackerSync/internal/stats"
	"tribeTrackerSync/internal/store"
	"tribeTrackerSync/internal/types/badge"
	"tribeTrackerSync/internal/types/challenge"
	"tribeTrackerSync/internal/types/checkin"
	"tribeTrackerSync/internal/types/participant"
	"tribeTrackerSync/internal/types/profile"
	"tribeTrackerSync/internal/types/syncqueue"
	"tribeTrackerSync/utils"
)

// ErrDuplicateJoin is returned when a user tries to join a challenge they are
// already a participant of.
var ErrDuplicateJoin = errors.New("user already joined this challenge")

const (
	eventBuffer = 128
	saveBuffer  = 256
)

// Dispatcher is the single entry point for entity mutations. Every mutating
// call applies the change to the in-memory collection synchronously, stamps
// an updated-at timestamp, hands the new collection snapshot to the
// persistence worker and emits a mutation event for the sync engine, then
// returns without waiting for any I/O.
type Dispatcher struct {
	mu sync.Mutex

	challenges   []challenge.Challenge
	participants []participant.ChallengeParticipant
	checkins     []checkin.HabitCheckin
	profile      *profile.UserProfile
	badgeDefs    []badge.BadgeDefinition
	earnedBadges []badge.EarnedBadge
	order        []string
	themeMode    string

	adapter  *store.Adapter
	events   chan MutationEvent
	saves    chan func()
	done     chan struct{}
	wg       sync.WaitGroup
	log      *zap.Logger
	now      func() time.Time
	overflow func(MutationEvent)
}

func NewDispatcher(adapter *store.Adapter, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		adapter: adapter,
		events:  make(chan MutationEvent, eventBuffer),
		saves:   make(chan func(), saveBuffer),
		done:    make(chan struct{}),
		log:     log,
		now:     time.Now,
	}

	// Single persistence worker: snapshot writes for a key land in the order
	// they were produced. Shutdown drains whatever is still buffered.
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case save := <-d.saves:
				save()
			case <-d.done:
				for {
					select {
					case save := <-d.saves:
						save()
					default:
						return
					}
				}
			}
		}
	}()

	return d
}

// SetClock overrides the timestamp source. Tests only.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Events is the mutation stream consumed by the sync engine.
func (d *Dispatcher) Events() <-chan MutationEvent {
	return d.events
}

// SetOverflowHandler installs the fallback for mutation events that do not
// fit in the buffer. Wire-up time only, before mutations start flowing.
func (d *Dispatcher) SetOverflowHandler(fn func(MutationEvent)) {
	d.overflow = fn
}

// Flush blocks until every persistence write queued so far has landed.
func (d *Dispatcher) Flush() {
	landed := make(chan struct{})
	select {
	case d.saves <- func() { close(landed) }:
		select {
		case <-landed:
		case <-d.done:
		}
	case <-d.done:
	}
}

// Close signals shutdown and waits for queued persistence writes to land.
// The channels stay open; a mutation arriving after Close still applies in
// memory but its persistence and sync are skipped.
func (d *Dispatcher) Close() {
	close(d.done)
	d.wg.Wait()
}

func (d *Dispatcher) enqueueSave(save func()) {
	select {
	case d.saves <- save:
	case <-d.done:
	}
}

func (d *Dispatcher) emit(ev MutationEvent) {
	select {
	case <-d.done:
		return
	default:
	}
	select {
	case d.events <- ev:
	default:
		// Buffer full. The event bypasses the channel and goes straight to
		// the pending sync queue via the overflow handler.
		if d.overflow != nil {
			d.overflow(ev)
			return
		}
		d.log.Warn("mutation event dropped, sync backlog full",
			zap.String("type", string(ev.Type)),
			zap.String("action", string(ev.Action)),
			zap.String("id", ev.ID))
	}
}

// ---------------------------------------------------------------------------
// Challenges

func (d *Dispatcher) AddChallenge(c challenge.Challenge) challenge.Challenge {
	d.mu.Lock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := d.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	d.challenges = append(d.challenges, c)
	d.persistChallengesLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeChallenges, Action: syncqueue.ActionCreate, ID: c.ID, Entity: c})
	return c
}

// UpdateChallenge replaces the stored record. Duration is only mutable while
// the challenge is still upcoming; for a started challenge the stored dates
// and duration win. A missing id is a silent no-op.
func (d *Dispatcher) UpdateChallenge(c challenge.Challenge) {
	d.mu.Lock()
	idx := d.challengeIndexLocked(c.ID)
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	existing := d.challenges[idx]
	if existing.Status(d.now()) != challenge.StatusUpcoming {
		c.DurationDays = existing.DurationDays
		c.StartDate = existing.StartDate
		c.EndDate = existing.EndDate
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = d.now()
	d.challenges[idx] = c
	d.persistChallengesLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeChallenges, Action: syncqueue.ActionUpdate, ID: c.ID, Entity: c})
}

// RemoveChallenge deletes only the challenge record. Participant and checkin
// records that still reference it are tolerated and filtered by readers.
func (d *Dispatcher) RemoveChallenge(id string) {
	d.mu.Lock()
	idx := d.challengeIndexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	d.challenges = append(d.challenges[:idx], d.challenges[idx+1:]...)
	d.persistChallengesLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeChallenges, Action: syncqueue.ActionDelete, ID: id})
}

func (d *Dispatcher) challengeIndexLocked(id string) int {
	for i := range d.challenges {
		if d.challenges[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Dispatcher) persistChallengesLocked() {
	snapshot := append([]challenge.Challenge(nil), d.challenges...)
	d.enqueueSave(func() { d.adapter.SaveChallenges(snapshot) })
}

// ---------------------------------------------------------------------------
// Participants

// AddParticipant records a user joining a challenge. A second join for the
// same (challenge, user) pair is rejected instead of creating a duplicate.
func (d *Dispatcher) AddParticipant(p participant.ChallengeParticipant) (participant.ChallengeParticipant, error) {
	d.mu.Lock()
	for i := range d.participants {
		if d.participants[i].ChallengeID == p.ChallengeID && d.participants[i].UserID == p.UserID {
			d.mu.Unlock()
			return participant.ChallengeParticipant{}, ErrDuplicateJoin
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := d.now()
	if p.JoinedAt.IsZero() {
		p.JoinedAt = now
	}
	p.UpdatedAt = now
	d.participants = append(d.participants, p)
	d.persistParticipantsLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeParticipants, Action: syncqueue.ActionCreate, ID: p.ID, Entity: p})
	return p, nil
}

func (d *Dispatcher) UpdateParticipant(p participant.ChallengeParticipant) {
	d.mu.Lock()
	idx := d.participantIndexLocked(p.ID)
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	p.JoinedAt = d.participants[idx].JoinedAt
	p.UpdatedAt = d.now()
	d.participants[idx] = p
	d.persistParticipantsLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeParticipants, Action: syncqueue.ActionUpdate, ID: p.ID, Entity: p})
}

func (d *Dispatcher) RemoveParticipant(id string) {
	d.mu.Lock()
	idx := d.participantIndexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	d.participants = append(d.participants[:idx], d.participants[idx+1:]...)
	d.persistParticipantsLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeParticipants, Action: syncqueue.ActionDelete, ID: id})
}

// UpdateParticipantStats applies recomputed statistics to a participant. The
// longest streak is a ratchet: it never decreases. The event carries no
// payload; the sync engine resolves the full record by id.
func (d *Dispatcher) UpdateParticipantStats(payload participant.StatsPayload) {
	d.mu.Lock()
	idx := d.participantIndexLocked(payload.ParticipantID)
	if idx < 0 {
		d.mu.Unlock()
		d.log.Debug("stats update for unknown participant", zap.String("id", payload.ParticipantID))
		return
	}
	p := &d.participants[idx]
	p.TotalPoints = payload.TotalPoints
	p.CurrentStreak = payload.CurrentStreak
	p.LongestStreak = stats.RatchetLongestStreak(payload.LongestStreak, p.LongestStreak)
	p.DaysParticipated = payload.DaysParticipated
	p.LastCheckinDate = payload.LastCheckinDate
	p.UpdatedAt = d.now()
	id := p.ID
	d.persistParticipantsLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeParticipants, Action: syncqueue.ActionUpdate, ID: id})
}

func (d *Dispatcher) participantIndexLocked(id string) int {
	for i := range d.participants {
		if d.participants[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Dispatcher) persistParticipantsLocked() {
	snapshot := append([]participant.ChallengeParticipant(nil), d.participants...)
	d.enqueueSave(func() { d.adapter.SaveParticipants(snapshot) })
}

// ---------------------------------------------------------------------------
// Checkins

// AddCheckin upserts: when a checkin already exists for the same
// (challenge, user, date) triple, the new habit data replaces it under the
// existing record's id instead of creating a second record.
func (d *Dispatcher) AddCheckin(c checkin.HabitCheckin) checkin.HabitCheckin {
	c.Recompute()
	now := d.now()
	c.UpdatedAt = &now

	d.mu.Lock()
	action := syncqueue.ActionCreate
	replaced := false
	for i := range d.checkins {
		if d.checkins[i].SameTriple(&c) {
			c.ID = d.checkins[i].ID
			d.checkins[i] = c
			action = syncqueue.ActionUpdate
			replaced = true
			break
		}
	}
	if !replaced {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		d.checkins = append(d.checkins, c)
	}
	d.persistCheckinsLocked()
	participantID, statsChanged := d.recomputeParticipantStatsLocked(c.ChallengeID, c.UserID)
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeCheckins, Action: action, ID: c.ID, Entity: c})
	if statsChanged {
		d.emit(MutationEvent{Type: syncqueue.TypeParticipants, Action: syncqueue.ActionUpdate, ID: participantID})
	}
	return c
}

func (d *Dispatcher) UpdateCheckin(c checkin.HabitCheckin) {
	c.Recompute()
	d.mu.Lock()
	idx := d.checkinIndexLocked(c.ID)
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	now := d.now()
	c.UpdatedAt = &now
	d.checkins[idx] = c
	d.persistCheckinsLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeCheckins, Action: syncqueue.ActionUpdate, ID: c.ID, Entity: c})
}

func (d *Dispatcher) RemoveCheckin(id string) {
	d.mu.Lock()
	idx := d.checkinIndexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	d.checkins = append(d.checkins[:idx], d.checkins[idx+1:]...)
	d.persistCheckinsLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeCheckins, Action: syncqueue.ActionDelete, ID: id})
}

// UpdateHabitCompletion toggles one habit flag on a checkin, recomputes the
// checkin's derived fields and then recomputes the owning participant's
// statistics in the same call. The events carry no payload; the sync engine
// resolves the live records.
func (d *Dispatcher) UpdateHabitCompletion(checkinID string, habitIndex int, completed bool) {
	d.mu.Lock()
	idx := d.checkinIndexLocked(checkinID)
	if idx < 0 {
		d.mu.Unlock()
		d.log.Debug("habit completion for unknown checkin", zap.String("id", checkinID))
		return
	}
	c := &d.checkins[idx]
	if habitIndex < 0 || habitIndex >= len(c.HabitsCompleted) {
		d.mu.Unlock()
		d.log.Warn("habit index out of range",
			zap.String("checkin_id", checkinID), zap.Int("index", habitIndex))
		return
	}
	c.HabitsCompleted[habitIndex] = completed
	c.Recompute()
	now := d.now()
	c.UpdatedAt = &now

	challengeID, userID := c.ChallengeID, c.UserID
	d.persistCheckinsLocked()

	participantID, statsChanged := d.recomputeParticipantStatsLocked(challengeID, userID)
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeCheckins, Action: syncqueue.ActionUpdate, ID: checkinID})
	if statsChanged {
		d.emit(MutationEvent{Type: syncqueue.TypeParticipants, Action: syncqueue.ActionUpdate, ID: participantID})
	}
}

// recomputeParticipantStatsLocked reruns the statistics engine for one
// (challenge, user) membership. An orphaned membership whose challenge is
// gone is left untouched.
func (d *Dispatcher) recomputeParticipantStatsLocked(challengeID, userID string) (string, bool) {
	var ch *challenge.Challenge
	for i := range d.challenges {
		if d.challenges[i].ID == challengeID {
			ch = &d.challenges[i]
			break
		}
	}
	if ch == nil {
		return "", false
	}

	var p *participant.ChallengeParticipant
	for i := range d.participants {
		if d.participants[i].ChallengeID == challengeID && d.participants[i].UserID == userID {
			p = &d.participants[i]
			break
		}
	}
	if p == nil {
		return "", false
	}

	valid := stats.ValidCheckins(d.checkins, challengeID, userID, ch.StartDate)
	dates := make([]time.Time, len(valid))
	for i, c := range valid {
		dates[i] = c.CheckinDate
	}

	today := utils.Day(d.now())
	current := stats.CurrentStreak(dates, today)
	p.TotalPoints = stats.TotalPoints(valid)
	p.DaysParticipated = stats.DaysParticipated(valid)
	p.CurrentStreak = current
	p.LongestStreak = stats.RatchetLongestStreak(current, p.LongestStreak)
	p.LastCheckinDate = stats.LastCheckinDate(valid)
	p.UpdatedAt = d.now()

	d.persistParticipantsLocked()
	return p.ID, true
}

func (d *Dispatcher) checkinIndexLocked(id string) int {
	for i := range d.checkins {
		if d.checkins[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Dispatcher) persistCheckinsLocked() {
	snapshot := append([]checkin.HabitCheckin(nil), d.checkins...)
	d.enqueueSave(func() { d.adapter.SaveCheckins(snapshot) })
}

// ---------------------------------------------------------------------------
// Profile

func (d *Dispatcher) SetProfile(p profile.UserProfile) {
	d.mu.Lock()
	p.UpdatedAt = d.now()
	d.profile = &p
	d.persistProfileLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeProfile, Action: syncqueue.ActionUpdate, ID: p.ID, Entity: p})
}

// UpdateProfile applies a partial-field update. Without a loaded profile it
// is a silent no-op.
func (d *Dispatcher) UpdateProfile(req profile.UpdateProfileRequest) {
	d.mu.Lock()
	if d.profile == nil {
		d.mu.Unlock()
		return
	}
	p := d.profile
	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&p.Name, req.Name)
	applyString(&p.Bio, req.Bio)
	applyString(&p.Location, req.Location)
	if req.Age != nil {
		p.Age = req.Age
	}
	if req.Height != nil {
		p.Height = req.Height
	}
	if req.Weight != nil {
		p.Weight = req.Weight
	}
	applyBool(&p.HideEmail, req.HideEmail)
	applyBool(&p.HideAge, req.HideAge)
	applyBool(&p.HideHeight, req.HideHeight)
	applyBool(&p.HideWeight, req.HideWeight)
	applyBool(&p.HideBio, req.HideBio)
	applyBool(&p.HideLocation, req.HideLocation)
	applyBool(&p.NotifyDailyReminder, req.NotifyDailyReminder)
	applyBool(&p.NotifyFriendActivity, req.NotifyFriendActivity)
	applyBool(&p.NotifyChallengeEnd, req.NotifyChallengeEnd)
	p.UpdatedAt = d.now()
	id := p.ID
	snapshot := *p
	d.persistProfileLocked()
	d.mu.Unlock()

	d.emit(MutationEvent{Type: syncqueue.TypeProfile, Action: syncqueue.ActionUpdate, ID: id, Entity: snapshot})
}

// ClearProfile wipes the local profile at sign-out. Nothing is pushed; the
// remote record is untouched.
func (d *Dispatcher) ClearProfile() {
	d.mu.Lock()
	d.profile = nil
	d.persistProfileLocked()
	d.mu.Unlock()
}

// SetChallengeOrder stores the display order and mirrors it into the profile
// when one exists, pushing the updated profile so the ordering reaches the
// server.
func (d *Dispatcher) SetChallengeOrder(order []string) {
	d.mu.Lock()
	d.order = append([]string(nil), order...)
	var ev *MutationEvent
	if d.profile != nil {
		d.profile.ChallengeOrder = append([]string(nil), order...)
		d.profile.UpdatedAt = d.now()
		d.persistProfileLocked()
		snapshot := *d.profile
		ev = &MutationEvent{Type: syncqueue.TypeProfile, Action: syncqueue.ActionUpdate, ID: snapshot.ID, Entity: snapshot}
	}
	orderSnapshot := append([]string(nil), d.order...)
	d.enqueueSave(func() { d.adapter.SaveChallengeOrder(orderSnapshot) })
	d.mu.Unlock()

	if ev != nil {
		d.emit(*ev)
	}
}

func (d *Dispatcher) SetThemeMode(mode string) {
	d.mu.Lock()
	d.themeMode = mode
	d.enqueueSave(func() { d.adapter.SaveThemeMode(mode) })
	d.mu.Unlock()
}

func (d *Dispatcher) persistProfileLocked() {
	var snapshot *profile.UserProfile
	if d.profile != nil {
		p := *d.profile
		snapshot = &p
	}
	d.enqueueSave(func() { d.adapter.SaveProfile(snapshot) })
}

// ---------------------------------------------------------------------------
// Reads and collection replacement

func (d *Dispatcher) Challenges() []challenge.Challenge {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]challenge.Challenge(nil), d.challenges...)
}

func (d *Dispatcher) Participants() []participant.ChallengeParticipant {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]participant.ChallengeParticipant(nil), d.participants...)
}

func (d *Dispatcher) Checkins() []checkin.HabitCheckin {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]checkin.HabitCheckin(nil), d.checkins...)
}

func (d *Dispatcher) Profile() *profile.UserProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.profile == nil {
		return nil
	}
	p := *d.profile
	return &p
}

func (d *Dispatcher) BadgeDefinitions() []badge.BadgeDefinition {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]badge.BadgeDefinition(nil), d.badgeDefs...)
}

func (d *Dispatcher) EarnedBadges() []badge.EarnedBadge {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]badge.EarnedBadge(nil), d.earnedBadges...)
}

func (d *Dispatcher) ChallengeOrder() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

func (d *Dispatcher) ThemeMode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.themeMode
}

// ResolveEntity returns the live record for a partial mutation event.
func (d *Dispatcher) ResolveEntity(t syncqueue.EntityType, id string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch t {
	case syncqueue.TypeChallenges:
		if i := d.challengeIndexLocked(id); i >= 0 {
			return d.challenges[i], true
		}
	case syncqueue.TypeParticipants:
		if i := d.participantIndexLocked(id); i >= 0 {
			return d.participants[i], true
		}
	case syncqueue.TypeCheckins:
		if i := d.checkinIndexLocked(id); i >= 0 {
			return d.checkins[i], true
		}
	case syncqueue.TypeProfile:
		if d.profile != nil {
			return *d.profile, true
		}
	}
	return nil, false
}

// Replace* overwrite a collection wholesale. Only the bootstrap/refresh
// controller calls these; they emit no sync events.

func (d *Dispatcher) ReplaceChallenges(cs []challenge.Challenge, persist bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.challenges = append([]challenge.Challenge(nil), cs...)
	if persist {
		d.persistChallengesLocked()
	}
}

func (d *Dispatcher) ReplaceParticipants(ps []participant.ChallengeParticipant, persist bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants = append([]participant.ChallengeParticipant(nil), ps...)
	if persist {
		d.persistParticipantsLocked()
	}
}

func (d *Dispatcher) ReplaceCheckins(cs []checkin.HabitCheckin, persist bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkins = append([]checkin.HabitCheckin(nil), cs...)
	if persist {
		d.persistCheckinsLocked()
	}
}

func (d *Dispatcher) ReplaceProfile(p *profile.UserProfile, persist bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p == nil {
		d.profile = nil
	} else {
		cp := *p
		d.profile = &cp
	}
	if persist {
		d.persistProfileLocked()
	}
}

func (d *Dispatcher) ReplaceBadgeDefinitions(bs []badge.BadgeDefinition, persist bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.badgeDefs = append([]badge.BadgeDefinition(nil), bs...)
	if persist {
		snapshot := append([]badge.BadgeDefinition(nil), d.badgeDefs...)
		d.enqueueSave(func() { d.adapter.SaveBadgeDefinitions(snapshot) })
	}
}

func (d *Dispatcher) ReplaceEarnedBadges(bs []badge.EarnedBadge, persist bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.earnedBadges = append([]badge.EarnedBadge(nil), bs...)
	if persist {
		snapshot := append([]badge.EarnedBadge(nil), d.earnedBadges...)
		d.enqueueSave(func() { d.adapter.SaveEarnedBadges(snapshot) })
	}
}

func (d *Dispatcher) ReplaceChallengeOrder(order []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.order = append([]string(nil), order...)
}

func (d *Dispatcher) ReplaceThemeMode(mode string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.themeMode = mode
}
