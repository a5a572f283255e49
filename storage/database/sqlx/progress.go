package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lusembo/maendeleo/core/progress"
)

type lessonProgressRow struct {
	UserID      string       `db:"user_id"`
	LessonID    string       `db:"lesson_id"`
	Completed   bool         `db:"completed"`
	XPAwarded   bool         `db:"xp_awarded"`
	CompletedAt sql.NullTime `db:"completed_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r lessonProgressRow) toProgress() progress.LessonProgress {
	lp := progress.LessonProgress{
		LearnerID: r.UserID,
		LessonID:  r.LessonID,
		Completed: r.Completed,
		XPAwarded: r.XPAwarded,
		UpdatedAt: r.UpdatedAt,
	}
	if r.CompletedAt.Valid {
		at := r.CompletedAt.Time
		lp.CompletedAt = &at
	}
	return lp
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) GetLessonProgress(ctx context.Context, learnerID, lessonID string) (progress.LessonProgress, error) {
	var row lessonProgressRow
	err := sqlx.GetContext(ctx, ext(ctx, repo.db), &row,
		`SELECT * FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2`, learnerID, lessonID)
	if err != nil {
		if err == sql.ErrNoRows {
			return progress.LessonProgress{LearnerID: learnerID, LessonID: lessonID}, nil
		}
		return progress.LessonProgress{}, err
	}
	return row.toProgress(), nil
}

// MarkCompleted creates or updates the ledger row with completed=true.
// Each transition flag comes from a write whose condition Postgres
// re-evaluates under the row lock, so two concurrent calls can never both
// observe the same flip. A pre-read (CTE or otherwise) would see the
// statement snapshot instead of the locked row and double-report.
func (repo *progressRepository) MarkCompleted(ctx context.Context, learnerID, lessonID string, at time.Time) (completedNow, awardedNow bool, err error) {
	ex := ext(ctx, repo.db)

	res, err := ex.ExecContext(ctx,
		`INSERT INTO lesson_progress (user_id, lesson_id, completed, xp_awarded, completed_at, updated_at)
		 VALUES ($1, $2, true, true, $3, $3)
		 ON CONFLICT (user_id, lesson_id) DO NOTHING`,
		learnerID, lessonID, at)
	if err != nil {
		return false, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, false, err
	}
	if n > 0 { // fresh row: first completion and first award
		return true, true, nil
	}

	res, err = ex.ExecContext(ctx,
		`UPDATE lesson_progress
		 SET completed = true, completed_at = $3, updated_at = $3
		 WHERE user_id = $1 AND lesson_id = $2 AND NOT completed`,
		learnerID, lessonID, at)
	if err != nil {
		return false, false, err
	}
	if n, err = res.RowsAffected(); err != nil {
		return false, false, err
	}
	completedNow = n > 0

	// xp_awarded never flips back; rows that already paid out stay put
	res, err = ex.ExecContext(ctx,
		`UPDATE lesson_progress
		 SET xp_awarded = true, updated_at = $3
		 WHERE user_id = $1 AND lesson_id = $2 AND NOT xp_awarded`,
		learnerID, lessonID, at)
	if err != nil {
		return false, false, err
	}
	if n, err = res.RowsAffected(); err != nil {
		return false, false, err
	}
	awardedNow = n > 0

	return completedNow, awardedNow, nil
}

func (repo *progressRepository) MarkUncompleted(ctx context.Context, learnerID, lessonID string, at time.Time) error {
	_, err := ext(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO lesson_progress (user_id, lesson_id, completed, xp_awarded, updated_at)
		 VALUES ($1, $2, false, false, $3)
		 ON CONFLICT (user_id, lesson_id) DO UPDATE
		 SET completed    = false,
		     completed_at = NULL,
		     updated_at   = EXCLUDED.updated_at`,
		learnerID, lessonID, at)
	return err
}

func (repo *progressRepository) MarkCourseCompleted(ctx context.Context, learnerID, courseID string, at time.Time) (bool, error) {
	res, err := ext(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO course_completions (user_id, course_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		learnerID, courseID, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (repo *progressRepository) CountCompletedLessons(ctx context.Context, learnerID, courseID string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, ext(ctx, repo.db), &count,
		`SELECT count(*) FROM lesson_progress lp
		 JOIN lessons l ON l.id = lp.lesson_id
		 WHERE lp.user_id = $1 AND l.course_id = $2 AND lp.completed`,
		learnerID, courseID)
	return count, err
}

func (repo *progressRepository) CountCompletedForLearner(ctx context.Context, learnerID string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, ext(ctx, repo.db), &count,
		`SELECT count(*) FROM lesson_progress WHERE user_id = $1 AND completed`, learnerID)
	return count, err
}
