package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribeTrackerSync/internal/types/challenge"
	"tribeTrackerSync/internal/types/checkin"
	"tribeTrackerSync/internal/types/participant"
	"tribeTrackerSync/internal/types/profile"
	"tribeTrackerSync/internal/types/syncqueue"
	"tribeTrackerSync/utils"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return NewAdapter(NewMemoryKV(), nil)
}

func TestFileKVRoundTrip(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("challenges", []byte(`[{"id":"a"}]`)))
	data, ok, err := kv.Get("challenges")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"a"}]`, string(data))

	require.NoError(t, kv.Remove("challenges"))
	_, ok, err = kv.Get("challenges")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing a missing key is fine.
	require.NoError(t, kv.Remove("challenges"))
}

func TestCollectionsRoundTrip(t *testing.T) {
	a := newTestAdapter(t)

	email := "me@example.com"
	cs := []challenge.Challenge{{
		ID:           "ch1",
		Name:         "Morning Routine",
		CreatorID:    "u1",
		CreatorName:  "Lane",
		DurationDays: 30,
		StartDate:    utils.MustDay("2024-01-01"),
		Habits:       []string{"run", "read"},
		IsPublic:     true,
	}}
	ps := []participant.ChallengeParticipant{{
		ID:          "p1",
		ChallengeID: "ch1",
		UserID:      "u1",
		DisplayName: "Lane",
		Email:       &email,
		TotalPoints: 12,
	}}
	ck := []checkin.HabitCheckin{{
		ID:              "c1",
		ChallengeID:     "ch1",
		UserID:          "u1",
		CheckinDate:     utils.MustDay("2024-01-02"),
		HabitsCompleted: []bool{true, false},
		PointsEarned:    1,
	}}
	prof := &profile.UserProfile{ID: "u1", Email: email, Name: "Lane", ChallengeOrder: []string{"ch1"}}

	a.SaveChallenges(cs)
	a.SaveParticipants(ps)
	a.SaveCheckins(ck)
	a.SaveProfile(prof)

	assert.Equal(t, cs, a.LoadChallenges())
	assert.Equal(t, ps, a.LoadParticipants())
	assert.Equal(t, ck, a.LoadCheckins())
	assert.Equal(t, prof, a.LoadProfile())
}

func TestEmptyCollectionsRoundTrip(t *testing.T) {
	a := newTestAdapter(t)

	a.SaveChallenges([]challenge.Challenge{})
	a.SaveParticipants([]participant.ChallengeParticipant{})
	a.SaveCheckins([]checkin.HabitCheckin{})

	assert.Empty(t, a.LoadChallenges())
	assert.Empty(t, a.LoadParticipants())
	assert.Empty(t, a.LoadCheckins())
	assert.Nil(t, a.LoadProfile())
}

func TestCorruptDataDegradesToEmpty(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set(KeyChallenges, []byte(`{not json`))
	kv.Set(KeyProfile, []byte(`[42, "wrong shape"]`))
	a := NewAdapter(kv, nil)

	assert.Empty(t, a.LoadChallenges())
	assert.Nil(t, a.LoadProfile())
}

func TestPendingQueueRoundTrip(t *testing.T) {
	a := newTestAdapter(t)

	assert.Empty(t, a.LoadPendingQueue())

	items := []syncqueue.PendingSyncItem{{
		Type:      syncqueue.TypeCheckins,
		Action:    syncqueue.ActionUpdate,
		Data:      []byte(`{"id":"c1"}`),
		Timestamp: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
	}}
	a.SavePendingQueue(items)
	assert.Equal(t, items, a.LoadPendingQueue())
}

func TestScalarKeys(t *testing.T) {
	a := newTestAdapter(t)

	assert.Empty(t, a.LoadThemeMode())
	a.SaveThemeMode("dark")
	assert.Equal(t, "dark", a.LoadThemeMode())

	a.SaveChallengeOrder([]string{"ch2", "ch1"})
	assert.Equal(t, []string{"ch2", "ch1"}, a.LoadChallengeOrder())

	assert.Nil(t, a.LoadLastSync())
	now := time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC)
	a.SaveLastSync(now)
	got := a.LoadLastSync()
	require.NotNil(t, got)
	assert.True(t, got.Equal(now))
}
