package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/lusembo/maendeleo/core/quiz"
)

type quizRow struct {
	ID                  string    `db:"id"`
	CourseID            string    `db:"course_id"`
	Title               string    `db:"title"`
	PassingScorePercent int       `db:"passing_score_percent"`
	CreatedAt           time.Time `db:"created_at"`
}

type questionRow struct {
	ID            string `db:"id"`
	QuizID        string `db:"quiz_id"`
	Position      int    `db:"position"`
	Text          string `db:"text"`
	Type          string `db:"type"`
	Options       []byte `db:"options"`
	CorrectAnswer string `db:"correct_answer"`
	Points        int    `db:"points"`
}

type attemptRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	QuizID     string    `db:"quiz_id"`
	Answers    []byte    `db:"answers"`
	Score      int       `db:"score"`
	MaxScore   int       `db:"max_score"`
	Percentage int       `db:"percentage"`
	Passed     bool      `db:"passed"`
	Breakdown  []byte    `db:"breakdown"`
	CreatedAt  time.Time `db:"created_at"`
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	x := ext(ctx, repo.db)

	var row quizRow
	if err := sqlx.GetContext(ctx, x, &row, `SELECT * FROM quizzes WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Quiz{}, quiz.ErrNotFound
		}
		return quiz.Quiz{}, err
	}

	qz := quiz.Quiz{
		ID:                  row.ID,
		CourseID:            row.CourseID,
		Title:               row.Title,
		PassingScorePercent: row.PassingScorePercent,
		CreatedAt:           row.CreatedAt,
	}

	var questions []questionRow
	err := sqlx.SelectContext(ctx, x, &questions,
		`SELECT * FROM quiz_questions WHERE quiz_id = $1 ORDER BY position`, id)
	if err != nil {
		return quiz.Quiz{}, err
	}
	qz.Questions = make([]quiz.Question, 0, len(questions))
	for _, q := range questions {
		var options []string
		if err := json.Unmarshal(q.Options, &options); err != nil {
			return quiz.Quiz{}, errors.Wrap(err, "unmarshalling question options")
		}
		qz.Questions = append(qz.Questions, quiz.Question{
			ID:            q.ID,
			QuizID:        q.QuizID,
			Position:      q.Position,
			Text:          q.Text,
			Type:          q.Type,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		})
	}
	return qz, nil
}

func (repo *quizRepository) CreateAttempt(ctx context.Context, att quiz.Attempt) error {
	answers, err := json.Marshal(att.Answers)
	if err != nil {
		return errors.Wrap(err, "marshalling answers")
	}
	breakdown, err := json.Marshal(att.Breakdown)
	if err != nil {
		return errors.Wrap(err, "marshalling breakdown")
	}

	_, err = ext(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO quiz_attempts (id, user_id, quiz_id, answers, score, max_score, percentage, passed, breakdown, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		att.ID, att.LearnerID, att.QuizID, answers, att.Score, att.MaxScore,
		att.Percentage, att.Passed, breakdown, att.CreatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return quiz.ErrAlreadyGraded
	}
	return err
}

func (repo *quizRepository) QueryAttempts(ctx context.Context, learnerID, quizID string) ([]quiz.Attempt, error) {
	var rows []attemptRow
	err := sqlx.SelectContext(ctx, ext(ctx, repo.db), &rows,
		`SELECT * FROM quiz_attempts WHERE user_id = $1 AND quiz_id = $2 ORDER BY created_at DESC`,
		learnerID, quizID)
	if err != nil {
		return nil, err
	}

	attempts := make([]quiz.Attempt, 0, len(rows))
	for _, r := range rows {
		att := quiz.Attempt{
			ID:         r.ID,
			LearnerID:  r.UserID,
			QuizID:     r.QuizID,
			Score:      r.Score,
			MaxScore:   r.MaxScore,
			Percentage: r.Percentage,
			Passed:     r.Passed,
			CreatedAt:  r.CreatedAt,
		}
		if err := json.Unmarshal(r.Answers, &att.Answers); err != nil {
			return nil, errors.Wrap(err, "unmarshalling answers")
		}
		if err := json.Unmarshal(r.Breakdown, &att.Breakdown); err != nil {
			return nil, errors.Wrap(err, "unmarshalling breakdown")
		}
		attempts = append(attempts, att)
	}
	return attempts, nil
}
