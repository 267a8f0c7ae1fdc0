package tests

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribeTrackerSync/internal/config"
	"tribeTrackerSync/internal/types/challenge"
	"tribeTrackerSync/internal/types/checkin"
	"tribeTrackerSync/internal/types/participant"
	"tribeTrackerSync/internal/types/syncqueue"
	"tribeTrackerSync/services"
	"tribeTrackerSync/tests/helpers"
	"tribeTrackerSync/utils"
)

func newApp(t *testing.T, baseURL, storageDir string) *services.App {
	t.Helper()
	app, err := services.NewApp(&config.Config{
		APIBaseURL:  baseURL,
		StorageDir:  storageDir,
		SyncEnabled: true,
		LogLevel:    "error",
	})
	require.NoError(t, err)
	return app
}

func countWrites(backend *helpers.FakeBackend, method, pathPrefix string) int {
	n := 0
	for _, w := range backend.Writes() {
		if w.Method == method && strings.HasPrefix(w.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func TestFullOfflineFirstFlow(t *testing.T) {
	backend := helpers.NewFakeBackend()
	defer backend.Close()
	storageDir := t.TempDir()

	app := newApp(t, backend.URL(), storageDir)
	app.Start(context.Background())

	// Sign-in triggers the remote refresh; the backend has nothing yet.
	app.SetSession(context.Background(), services.Session{UserID: "u1", Token: "tok"})
	require.True(t, app.Bootstrap.Initialized())

	// Local mutations apply immediately and push in the background.
	ch := app.Dispatcher.AddChallenge(challenge.Challenge{
		Name:         "30 Days of Running",
		CreatorID:    "u1",
		CreatorName:  "Lane",
		DurationDays: 30,
		StartDate:    utils.MustDay("2024-01-01"),
		Habits:       []string{"run", "stretch"},
		IsPublic:     true,
	})
	_, err := app.Dispatcher.AddParticipant(participant.ChallengeParticipant{
		ChallengeID: ch.ID,
		UserID:      "u1",
		DisplayName: "Lane",
	})
	require.NoError(t, err)

	app.Dispatcher.AddCheckin(checkin.HabitCheckin{
		ChallengeID:     ch.ID,
		UserID:          "u1",
		CheckinDate:     utils.MustDay("2024-01-01"),
		HabitsCompleted: []bool{true, true},
	})

	require.Eventually(t, func() bool {
		return countWrites(backend, "POST", "/api/challenges") == 1 &&
			countWrites(backend, "POST", "/api/participants") == 1 &&
			countWrites(backend, "POST", "/api/checkins") == 1
	}, 5*time.Second, 20*time.Millisecond, "all three creates should be pushed")

	// The checkin push carries the full entity wrapped under its name.
	var pushedCheckin map[string]any
	for _, w := range backend.Writes() {
		if w.Method == "POST" && w.Path == "/api/checkins" {
			require.NoError(t, json.Unmarshal(w.Body["checkin"], &pushedCheckin))
		}
	}
	require.NotNil(t, pushedCheckin)
	assert.Equal(t, float64(2), pushedCheckin["points_earned"])
	assert.Contains(t, pushedCheckin, "updated_at")

	assert.Empty(t, app.Sync.PendingQueue())
	app.Close()
}

func TestOfflineMutationsQueueAndReplay(t *testing.T) {
	backend := helpers.NewFakeBackend()
	defer backend.Close()
	storageDir := t.TempDir()

	app := newApp(t, backend.URL(), storageDir)
	app.Start(context.Background())
	app.SetSession(context.Background(), services.Session{UserID: "u1", Token: "tok"})

	backend.FailWrites(true)

	ck := app.Dispatcher.AddCheckin(checkin.HabitCheckin{
		ChallengeID:     "ch1",
		UserID:          "u1",
		CheckinDate:     utils.MustDay("2024-01-05"),
		HabitsCompleted: []bool{true},
	})

	// The local write succeeded regardless; the push lands in the queue.
	require.Len(t, app.Dispatcher.Checkins(), 1)
	require.Eventually(t, func() bool {
		return len(app.Sync.PendingQueue()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	item := app.Sync.PendingQueue()[0]
	assert.Equal(t, syncqueue.TypeCheckins, item.Type)
	var queued checkin.HabitCheckin
	require.NoError(t, json.Unmarshal(item.Data, &queued))
	assert.Equal(t, ck.ID, queued.ID)

	// Backend comes back; replay drains the queue.
	backend.FailWrites(false)
	app.Sync.ReplayPending()
	assert.Empty(t, app.Sync.PendingQueue())
	app.Close()
}

func TestStateSurvivesRestart(t *testing.T) {
	backend := helpers.NewFakeBackend()
	defer backend.Close()
	storageDir := t.TempDir()

	app := newApp(t, backend.URL(), storageDir)
	app.Start(context.Background())

	ch := app.Dispatcher.AddChallenge(challenge.Challenge{
		Name:         "Meditation",
		CreatorID:    "u1",
		DurationDays: 14,
		StartDate:    utils.MustDay("2024-02-01"),
		Habits:       []string{"meditate"},
	})
	app.Dispatcher.AddCheckin(checkin.HabitCheckin{
		ChallengeID:     ch.ID,
		UserID:          "u1",
		CheckinDate:     utils.MustDay("2024-02-01"),
		HabitsCompleted: []bool{true},
	})
	app.Dispatcher.Flush()
	app.Close()

	// Cold start on the same storage: local truth comes back with no network.
	reopened := newApp(t, "", storageDir)
	reopened.Start(context.Background())
	defer reopened.Close()

	require.Len(t, reopened.Dispatcher.Challenges(), 1)
	assert.Equal(t, "Meditation", reopened.Dispatcher.Challenges()[0].Name)
	require.Len(t, reopened.Dispatcher.Checkins(), 1)
	assert.True(t, reopened.Bootstrap.Initialized())
}

func TestRemoteRefreshSeedsLocalState(t *testing.T) {
	backend := helpers.NewFakeBackend()
	defer backend.Close()

	backend.SetCollection("challenges", []map[string]any{
		{"id": "srv-ch", "name": "Server Challenge", "duration_days": 10, "habits": []string{"walk"}},
	})
	backend.SetProfile(map[string]any{"id": "u1", "email": "me@example.com", "name": "Lane"})

	app := newApp(t, backend.URL(), t.TempDir())
	app.Start(context.Background())
	defer app.Close()

	app.SetSession(context.Background(), services.Session{UserID: "u1", Token: "tok"})

	require.Len(t, app.Dispatcher.Challenges(), 1)
	assert.Equal(t, "srv-ch", app.Dispatcher.Challenges()[0].ID)
	require.NotNil(t, app.Dispatcher.Profile())
	assert.Equal(t, "Lane", app.Dispatcher.Profile().Name)
}
