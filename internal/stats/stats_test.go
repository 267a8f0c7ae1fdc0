package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tribeTrackerSync/internal/types/checkin"
	"tribeTrackerSync/utils"
)

func days(keys ...string) []time.Time {
	out := make([]time.Time, len(keys))
	for i, k := range keys {
		out[i] = utils.MustDay(k)
	}
	return out
}

func TestCalculateActiveStreakRequiresToday(t *testing.T) {
	today := utils.MustDay("2024-01-05")

	assert.Equal(t, 0, CalculateActiveStreak(nil, today))
	assert.Equal(t, 0, CalculateActiveStreak(days("2024-01-04"), today), "most recent checkin is not today")
	assert.Equal(t, 0, CalculateActiveStreak(days("2024-01-01", "2024-01-02", "2024-01-03"), today))

	// Whenever the most recent date is today the streak is at least 1.
	assert.Equal(t, 1, CalculateActiveStreak(days("2024-01-05"), today))
	assert.Equal(t, 3, CalculateActiveStreak(days("2024-01-03", "2024-01-04", "2024-01-05"), today))
	assert.Equal(t, 2, CalculateActiveStreak(days("2024-01-01", "2024-01-04", "2024-01-05"), today))
}

func TestCalculateActiveStreakIgnoresDuplicateDates(t *testing.T) {
	today := utils.MustDay("2024-01-05")
	got := CalculateActiveStreak(days("2024-01-05", "2024-01-05", "2024-01-04"), today)
	assert.Equal(t, 2, got)
}

func TestCurrentStreakForgivesMissingToday(t *testing.T) {
	today := utils.MustDay("2024-01-05")

	// No checkin today yet: the run ending yesterday still counts.
	assert.Equal(t, 2, CurrentStreak(days("2024-01-03", "2024-01-04"), today))
	// With today checked in the run includes it.
	assert.Equal(t, 3, CurrentStreak(days("2024-01-03", "2024-01-04", "2024-01-05"), today))
	// Two days silent is a broken streak.
	assert.Equal(t, 0, CurrentStreak(days("2024-01-01", "2024-01-02"), today))
	assert.Equal(t, 0, CurrentStreak(nil, today))
}

func TestScenarioChallengeWithGap(t *testing.T) {
	start := utils.MustDay("2024-01-01")
	today := utils.MustDay("2024-01-04")

	mk := func(date string) checkin.HabitCheckin {
		c := checkin.HabitCheckin{
			ChallengeID:     "ch1",
			UserID:          "u1",
			CheckinDate:     utils.MustDay(date),
			HabitsCompleted: []bool{true, false},
		}
		c.Recompute()
		return c
	}
	checkins := []checkin.HabitCheckin{mk("2024-01-01"), mk("2024-01-02"), mk("2024-01-04")}

	valid := ValidCheckins(checkins, "ch1", "u1", start)
	assert.Equal(t, 3, DaysParticipated(valid))
	assert.Equal(t, 3, TotalPoints(valid))

	dates := make([]time.Time, len(valid))
	for i, c := range valid {
		dates[i] = c.CheckinDate
	}
	// The gap on 01-03 breaks the run: only 01-04 counts from today.
	assert.Equal(t, 1, CurrentStreak(dates, today))
}

func TestValidCheckinsExcludesBeforeStart(t *testing.T) {
	start := utils.MustDay("2024-02-01")
	early := checkin.HabitCheckin{ChallengeID: "ch1", UserID: "u1", CheckinDate: utils.MustDay("2024-01-20"), PointsEarned: 5}
	ok := checkin.HabitCheckin{ChallengeID: "ch1", UserID: "u1", CheckinDate: utils.MustDay("2024-02-02"), PointsEarned: 2}
	other := checkin.HabitCheckin{ChallengeID: "ch2", UserID: "u1", CheckinDate: utils.MustDay("2024-02-03"), PointsEarned: 9}

	valid := ValidCheckins([]checkin.HabitCheckin{early, ok, other}, "ch1", "u1", start)
	assert.Len(t, valid, 1)
	assert.Equal(t, 2, TotalPoints(valid))
}

func TestRatchetLongestStreakNeverDecreases(t *testing.T) {
	assert.Equal(t, 7, RatchetLongestStreak(3, 7))
	assert.Equal(t, 9, RatchetLongestStreak(9, 7))
	assert.Equal(t, 0, RatchetLongestStreak(0, 0))
}

func TestLastCheckinDate(t *testing.T) {
	assert.Nil(t, LastCheckinDate(nil))

	cs := []checkin.HabitCheckin{
		{CheckinDate: utils.MustDay("2024-01-02")},
		{CheckinDate: utils.MustDay("2024-01-05")},
		{CheckinDate: utils.MustDay("2024-01-03")},
	}
	got := LastCheckinDate(cs)
	assert.NotNil(t, got)
	assert.True(t, utils.SameDay(*got, utils.MustDay("2024-01-05")))
}

func TestLevels(t *testing.T) {
	assert.Equal(t, 1, Level(0))
	assert.Equal(t, 1, Level(9))
	assert.Equal(t, 2, Level(10))
	assert.Equal(t, 4, Level(35))

	assert.Equal(t, 10, PointsToNextLevel(0))
	assert.Equal(t, 1, PointsToNextLevel(9))
	assert.Equal(t, 5, PointsToNextLevel(35))

	assert.Equal(t, "Newcomer", LevelTitle(1))
	assert.Equal(t, "Elite", LevelTitle(7))
	// Display title caps at Elite for any level past 7.
	assert.Equal(t, "Elite", LevelTitle(42))
}
