package progress

import "time"

type (
	// LessonProgress is the completion ledger record for one (learner,
	// lesson) pair. Completed toggles freely; XPAwarded is monotonic:
	// once true it stays true, so XP for a lesson is granted at most once
	// no matter how often completion is toggled.
	LessonProgress struct {
		LearnerID   string     `json:"learner_id"`
		LessonID    string     `json:"lesson_id"`
		Completed   bool       `json:"completed"`
		XPAwarded   bool       `json:"xp_awarded"`
		CompletedAt *time.Time `json:"completed_at,omitempty"` // UTC
		UpdatedAt   time.Time  `json:"updated_at"`             // UTC
	}

	// CompletionResult reports what a completion call earned the learner.
	CompletionResult struct {
		XPGranted          int      `json:"xp_granted"` // base lesson XP, 0 if already awarded
		StreakBonus        int      `json:"streak_bonus"`
		CourseBonus        int      `json:"course_bonus"` // granted when the call completes the course
		CourseCompletedNow bool     `json:"course_completed_now"`
		NewLevel           int      `json:"new_level,omitempty"`
		BadgesGranted      []string `json:"badges_granted,omitempty"`
	}
)
