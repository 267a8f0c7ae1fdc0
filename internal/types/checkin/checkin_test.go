package checkin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tribeTrackerSync/utils"
)

func TestRecompute(t *testing.T) {
	cases := []struct {
		name       string
		habits     []bool
		wantPoints int
		wantAll    bool
	}{
		{"all complete", []bool{true, true, true}, 3, true},
		{"partial", []bool{true, false, true}, 2, false},
		{"none", []bool{false, false}, 0, false},
		{"single", []bool{true}, 1, true},
		{"empty", nil, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := HabitCheckin{HabitsCompleted: tc.habits}
			c.Recompute()
			assert.Equal(t, tc.wantPoints, c.PointsEarned)
			assert.Equal(t, tc.wantAll, c.AllHabitsCompleted)
		})
	}
}

func TestSameTripleMatchesOnCalendarDay(t *testing.T) {
	a := HabitCheckin{ChallengeID: "ch1", UserID: "u1", CheckinDate: utils.MustDay("2024-01-05")}
	b := HabitCheckin{ChallengeID: "ch1", UserID: "u1", CheckinDate: utils.MustDay("2024-01-05").Add(13 * time.Hour)}
	assert.True(t, a.SameTriple(&b))

	b.UserID = "u2"
	assert.False(t, a.SameTriple(&b))
}
