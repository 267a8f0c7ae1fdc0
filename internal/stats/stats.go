// Package stats computes the derived statistics for a participant from their
// checkin history. Every function is pure: "today" is always an explicit
// argument, never read from the clock.
package stats

import (
	"sort"
	"time"

	"tribeTrackerSync/internal/types/checkin"
	"tribeTrackerSync/utils"
)

// ValidCheckins filters a user's checkins for one challenge down to the ones
// that count: on or after the challenge's effective start date. Checkins left
// over from a re-joined or re-dated challenge are excluded.
func ValidCheckins(checkins []checkin.HabitCheckin, challengeID, userID string, startDate time.Time) []checkin.HabitCheckin {
	start := utils.Day(startDate)
	var valid []checkin.HabitCheckin
	for _, c := range checkins {
		if c.ChallengeID != challengeID || c.UserID != userID {
			continue
		}
		if utils.Day(c.CheckinDate).Before(start) {
			continue
		}
		valid = append(valid, c)
	}
	return valid
}

// TotalPoints sums PointsEarned over valid checkins.
func TotalPoints(checkins []checkin.HabitCheckin) int {
	total := 0
	for _, c := range checkins {
		total += c.PointsEarned
	}
	return total
}

// DaysParticipated counts distinct checkin dates.
func DaysParticipated(checkins []checkin.HabitCheckin) int {
	days := make(map[string]struct{}, len(checkins))
	for _, c := range checkins {
		days[utils.DayKey(c.CheckinDate)] = struct{}{}
	}
	return len(days)
}

// CurrentStreak is the persisted, forgiving streak: the run of consecutive
// checkin days ending at today, or ending at yesterday when today has no
// checkin yet. A streak is not considered broken until a full day has passed
// without a checkin.
func CurrentStreak(dates []time.Time, today time.Time) int {
	present := daySet(dates)
	if len(present) == 0 {
		return 0
	}

	cursor := utils.Day(today)
	if _, ok := present[utils.DayKey(cursor)]; !ok {
		cursor = utils.AddDays(cursor, -1)
		if _, ok := present[utils.DayKey(cursor)]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := present[utils.DayKey(cursor)]; !ok {
			break
		}
		streak++
		cursor = utils.AddDays(cursor, -1)
	}
	return streak
}

// CalculateActiveStreak is the strict, UI-facing streak: zero unless the most
// recent checkin date is exactly today, otherwise the count of consecutive
// days walking back from today.
func CalculateActiveStreak(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	keys := make([]string, 0, len(dates))
	for k := range daySet(dates) {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	if keys[0] != utils.DayKey(today) {
		return 0
	}

	streak := 1
	cursor := utils.AddDays(today, -1)
	for i := 1; i < len(keys); i++ {
		if keys[i] != utils.DayKey(cursor) {
			break
		}
		streak++
		cursor = utils.AddDays(cursor, -1)
	}
	return streak
}

// RatchetLongestStreak never lets the stored longest streak decrease.
func RatchetLongestStreak(current, storedLongest int) int {
	if current > storedLongest {
		return current
	}
	return storedLongest
}

// LastCheckinDate returns the most recent checkin date, or nil when there are
// no checkins.
func LastCheckinDate(checkins []checkin.HabitCheckin) *time.Time {
	var last *time.Time
	for _, c := range checkins {
		d := utils.Day(c.CheckinDate)
		if last == nil || d.After(*last) {
			day := d
			last = &day
		}
	}
	return last
}

func daySet(dates []time.Time) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[utils.DayKey(d)] = struct{}{}
	}
	return set
}
