package gamification

import "time"

// Badge catalog names. The catalog itself lives in the store (seeded by
// migrations); these are the names the engine triggers on.
const (
	BadgeFirstSteps      = "First Steps"      // first-ever lesson completion
	BadgeCourseConqueror = "Course Conqueror" // a course reached 100%
	BadgeQuizWhiz        = "Quiz Whiz"        // passed a quiz
	BadgeBusyBee         = "Busy Bee"         // 7-day activity streak
	BadgeUnstoppable     = "Unstoppable"      // 30-day activity streak
)

// Streak lengths that trigger the milestone badges above.
const (
	busyBeeStreak     = 7
	unstoppableStreak = 30
)

type (
	// Profile accumulates a learner's XP. XP never decreases through this
	// engine; Level is always derived from XP (see LevelForXP), never
	// mutated on its own.
	Profile struct {
		LearnerID string `json:"learner_id"`
		XP        int    `json:"xp"`
		Level     int    `json:"level"`
	}

	// Streak tracks consecutive calendar days (UTC) with learner activity.
	// Longest never decreases.
	Streak struct {
		LearnerID        string    `json:"learner_id"`
		Current          int       `json:"current_streak"`
		Longest          int       `json:"longest_streak"`
		LastActivityDate time.Time `json:"last_activity_date"`
	}

	Badge struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// BadgeGrant exists at most once per (learner, badge); the store's
	// uniqueness constraint enforces it.
	BadgeGrant struct {
		LearnerID string    `json:"learner_id"`
		BadgeID   string    `json:"badge_id"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	// LearnerBadge is a granted badge with its grant time, for display.
	LearnerBadge struct {
		Badge
		GrantedAt time.Time `json:"granted_at"`
	}

	XPResult struct {
		TotalAwarded int `json:"total_awarded"`
		StreakBonus  int `json:"streak_bonus"`
		XP           int `json:"xp"`
		NewLevel     int `json:"new_level"`
	}

	ActivityResult struct {
		CurrentStreak   int  `json:"current_streak"`
		LongestStreak   int  `json:"longest_streak"`
		StreakIncreased bool `json:"streak_increased"`
	}

	GrantResult struct {
		Granted bool `json:"granted"`
	}

	// Progression is the dashboard gamification widget payload.
	Progression struct {
		Profile     Profile        `json:"profile"`
		NextLevelXP int            `json:"next_level_xp"`
		Streak      Streak         `json:"streak"`
		Badges      []LearnerBadge `json:"badges"`
	}
)
