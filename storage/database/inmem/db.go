// Package inmemdb provides map-backed repositories for tests and local
// development. A single DB value is shared by all repositories; one mutex
// guards every table, which also makes the no-op Atomic safe.
package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/lusembo/maendeleo/core"
	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/gamification"
	"github.com/lusembo/maendeleo/core/progress"
	"github.com/lusembo/maendeleo/core/quiz"
	"github.com/lusembo/maendeleo/core/user"
)

type DB struct {
	mu sync.RWMutex

	users             map[string]user.User         // by ID
	courses           map[string]course.Course     // by ID
	lessons           map[string]course.Lesson     // by ID
	enrollments       map[string]course.Enrollment // by learnerID|courseID
	progress          map[string]progress.LessonProgress
	courseCompletions map[string]time.Time // by learnerID|courseID
	profiles          map[string]gamification.Profile // by learner ID
	streaks           map[string]gamification.Streak  // by learner ID
	badges            map[string]gamification.Badge   // by ID
	grants            map[string]gamification.BadgeGrant
	quizzes           map[string]quiz.Quiz    // by ID
	attempts          map[string]quiz.Attempt // by ID
}

func NewDB() *DB {
	db := &DB{
		users:             make(map[string]user.User),
		courses:           make(map[string]course.Course),
		lessons:           make(map[string]course.Lesson),
		enrollments:       make(map[string]course.Enrollment),
		progress:          make(map[string]progress.LessonProgress),
		courseCompletions: make(map[string]time.Time),
		profiles:          make(map[string]gamification.Profile),
		streaks:           make(map[string]gamification.Streak),
		badges:            make(map[string]gamification.Badge),
		grants:            make(map[string]gamification.BadgeGrant),
		quizzes:           make(map[string]quiz.Quiz),
		attempts:          make(map[string]quiz.Attempt),
	}
	db.seedBadges()
	return db
}

var _ core.Atomic = (*DB)(nil)

// Atomic runs fn directly: every repository write already holds the single
// DB mutex, and there is nothing to roll back in memory.
func (db *DB) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SetCourse stores the course and indexes its lessons for lookup by ID.
func (db *DB) SetCourse(crs course.Course) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.courses[crs.ID] = crs
	for _, lsn := range crs.Lessons {
		db.lessons[lsn.ID] = lsn
	}
}

func (db *DB) SetQuiz(qz quiz.Quiz) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.quizzes[qz.ID] = qz
}

// seedBadges mirrors the badge catalog the migrations seed in PostgreSQL.
func (db *DB) seedBadges() {
	for _, b := range []gamification.Badge{
		{ID: "b6f9c5d0-1111-4a61-9c3e-30f1a1a1a001", Name: gamification.BadgeFirstSteps, Description: "Completed your very first lesson"},
		{ID: "b6f9c5d0-1111-4a61-9c3e-30f1a1a1a002", Name: gamification.BadgeCourseConqueror, Description: "Completed every lesson of a course"},
		{ID: "b6f9c5d0-1111-4a61-9c3e-30f1a1a1a003", Name: gamification.BadgeQuizWhiz, Description: "Passed a quiz"},
		{ID: "b6f9c5d0-1111-4a61-9c3e-30f1a1a1a004", Name: gamification.BadgeBusyBee, Description: "Kept a 7-day activity streak"},
		{ID: "b6f9c5d0-1111-4a61-9c3e-30f1a1a1a005", Name: gamification.BadgeUnstoppable, Description: "Kept a 30-day activity streak"},
	} {
		db.badges[b.ID] = b
	}
}

func key(a, b string) string { return a + "|" + b }
