package gamification

import "time"

// LevelForXP derives a learner's level from cumulative XP: one level per
// levelXP quantum, starting at level 1. Monotonic in xp and recomputable at
// any time; the stored level column is only ever written with this value.
func LevelForXP(xp, levelXP int) int {
	if levelXP <= 0 {
		return 1
	}
	if xp < 0 {
		xp = 0
	}
	return xp/levelXP + 1
}

// StreakBonus computes the bonus XP for the learner's current streak:
// step XP per consecutive day beyond the first, capped at max.
// Monotonic non-decreasing in the streak length.
func StreakBonus(currentStreak, step, max int) int {
	if currentStreak <= 1 {
		return 0
	}
	bonus := (currentStreak - 1) * step
	if bonus > max {
		bonus = max
	}
	return bonus
}

// AdvanceStreak applies an activity on day to s and reports whether the
// streak increased. Same calendar day: no change. Exactly the next day:
// +1. A longer gap: reset to 1. Days before LastActivityDate are ignored.
// Longest never decreases. All dates are compared as UTC calendar days.
func AdvanceStreak(s Streak, day time.Time) (Streak, bool) {
	day = truncateDay(day)
	prev := s.Current

	if s.Current == 0 { // no activity yet
		s.Current = 1
		s.LastActivityDate = day
	} else {
		last := truncateDay(s.LastActivityDate)
		switch days := int(day.Sub(last).Hours() / 24); {
		case days <= 0:
			return s, false
		case days == 1:
			s.Current++
		default:
			s.Current = 1
		}
		s.LastActivityDate = day
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s, s.Current > prev
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
