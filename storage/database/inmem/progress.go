package inmemdb

import (
	"context"
	"time"

	"github.com/lusembo/maendeleo/core/progress"
)

type progressRepository struct {
	db *DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) GetLessonProgress(ctx context.Context, learnerID, lessonID string) (progress.LessonProgress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if lp, ok := repo.db.progress[key(learnerID, lessonID)]; ok {
		return lp, nil
	}
	return progress.LessonProgress{LearnerID: learnerID, LessonID: lessonID}, nil
}

func (repo *progressRepository) MarkCompleted(ctx context.Context, learnerID, lessonID string, at time.Time) (completedNow, awardedNow bool, err error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	k := key(learnerID, lessonID)
	lp, ok := repo.db.progress[k]
	if !ok {
		lp = progress.LessonProgress{LearnerID: learnerID, LessonID: lessonID}
	}

	completedNow = !lp.Completed
	awardedNow = !lp.XPAwarded

	lp.Completed = true
	lp.XPAwarded = true
	if completedNow {
		completedAt := at
		lp.CompletedAt = &completedAt
	}
	lp.UpdatedAt = at
	repo.db.progress[k] = lp
	return completedNow, awardedNow, nil
}

func (repo *progressRepository) MarkUncompleted(ctx context.Context, learnerID, lessonID string, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	k := key(learnerID, lessonID)
	lp, ok := repo.db.progress[k]
	if !ok {
		lp = progress.LessonProgress{LearnerID: learnerID, LessonID: lessonID}
	}
	lp.Completed = false
	lp.CompletedAt = nil
	lp.UpdatedAt = at
	repo.db.progress[k] = lp
	return nil
}

func (repo *progressRepository) MarkCourseCompleted(ctx context.Context, learnerID, courseID string, at time.Time) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	k := key(learnerID, courseID)
	if _, ok := repo.db.courseCompletions[k]; ok {
		return false, nil
	}
	repo.db.courseCompletions[k] = at
	return true, nil
}

func (repo *progressRepository) CountCompletedLessons(ctx context.Context, learnerID, courseID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, lp := range repo.db.progress {
		if !lp.Completed || lp.LearnerID != learnerID {
			continue
		}
		if lsn, ok := repo.db.lessons[lp.LessonID]; ok && lsn.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (repo *progressRepository) CountCompletedForLearner(ctx context.Context, learnerID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, lp := range repo.db.progress {
		if lp.Completed && lp.LearnerID == learnerID {
			count++
		}
	}
	return count, nil
}
