package quiz

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/lusembo/maendeleo/core"
	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/gamification"
)

var (
	// errors
	ErrNotFound         = errors.New("quiz not found")
	ErrAlreadyGraded    = errors.New("attempt already graded")
	ErrInvalidAnswerSet = errors.New("answers reference questions not in this quiz")
)

type (
	Repository interface {
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		// CreateAttempt inserts the graded attempt; a duplicate attempt ID
		// yields ErrAlreadyGraded (attempts are never updated).
		CreateAttempt(ctx context.Context, att Attempt) error
		QueryAttempts(ctx context.Context, learnerID, quizID string) ([]Attempt, error)
	}

	ServiceInterface interface {
		GetQuestions(ctx context.Context, quizID string) ([]ClientQuestion, error)
		GradeAttempt(ctx context.Context, learnerID, quizID, attemptID string, answers AnswerSet) (Attempt, error)
		Attempts(ctx context.Context, learnerID, quizID string) ([]Attempt, error)
	}

	Service struct {
		repo   Repository
		crsSvc course.ServiceInterface
		gmSvc  gamification.ServiceInterface
		atomic core.Atomic
		logger core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	crsSvc course.ServiceInterface,
	gmSvc gamification.ServiceInterface,
	atomic core.Atomic,
	logger core.Logger,
) *Service {
	return &Service{
		repo:   repo,
		crsSvc: crsSvc,
		gmSvc:  gmSvc,
		atomic: atomic,
		logger: logger,
	}
}

// GetQuestions serves the quiz's questions stripped of answer keys, in
// position order. Grading stays server-side where the keys live.
func (svc *Service) GetQuestions(ctx context.Context, quizID string) ([]ClientQuestion, error) {
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions := make([]ClientQuestion, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		questions = append(questions, q.Client())
	}
	return questions, nil
}

// GradeAttempt grades the submitted answer set server-side and persists it
// as an immutable Attempt. attemptID may be client-generated for
// idempotency; submitting the same ID twice returns ErrAlreadyGraded.
// On success the learner's activity is recorded and score/2 XP awarded;
// a passing attempt additionally triggers the quiz badge.
func (svc *Service) GradeAttempt(ctx context.Context, learnerID, quizID, attemptID string, answers AnswerSet) (Attempt, error) {
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}

	enrolled, err := svc.crsSvc.IsEnrolled(ctx, learnerID, qz.CourseID)
	if err != nil {
		return Attempt{}, err
	}
	if !enrolled {
		return Attempt{}, course.ErrNotEnrolled
	}

	if err := validateAnswers(qz, answers); err != nil {
		return Attempt{}, err
	}

	if attemptID == "" {
		attemptID = uuid.New().String()
	}

	att := grade(qz, answers)
	att.ID = attemptID
	att.LearnerID = learnerID
	att.CreatedAt = time.Now().UTC()

	err = svc.atomic.Atomic(ctx, func(ctx context.Context) error {
		if err := svc.repo.CreateAttempt(ctx, att); err != nil {
			return err
		}

		// streak before XP so the bonus sees the fresh streak
		if _, err := svc.gmSvc.RecordActivity(ctx, learnerID, att.CreatedAt); err != nil {
			return pkgerrors.Wrap(err, "recording activity")
		}
		if _, err := svc.gmSvc.AddXP(ctx, learnerID, att.Score/2, "quiz attempt: "+qz.Title); err != nil {
			return pkgerrors.Wrap(err, "awarding quiz XP")
		}
		if att.Passed {
			if _, err := svc.gmSvc.GrantBadgeIfAbsent(ctx, learnerID, gamification.BadgeQuizWhiz); err != nil {
				return pkgerrors.Wrap(err, "granting quiz badge")
			}
		}
		return nil
	})
	if err != nil {
		return Attempt{}, err
	}
	return att, nil
}

func (svc *Service) Attempts(ctx context.Context, learnerID, quizID string) ([]Attempt, error) {
	return svc.repo.QueryAttempts(ctx, learnerID, quizID)
}

// validateAnswers rejects answer sets referencing foreign questions.
// Unanswered questions are fine; they grade as wrong.
func validateAnswers(qz Quiz, answers AnswerSet) error {
	ids := make(map[string]struct{}, len(qz.Questions))
	for _, q := range qz.Questions {
		ids[q.ID] = struct{}{}
	}
	for qid := range answers {
		if _, ok := ids[qid]; !ok {
			return ErrInvalidAnswerSet
		}
	}
	return nil
}

// grade scores the answer set against the quiz. A quiz with no questions
// (maxScore 0) grades as 0% / failed rather than dividing by zero; the
// pass threshold is inclusive.
func grade(qz Quiz, answers AnswerSet) Attempt {
	att := Attempt{
		QuizID:    qz.ID,
		Answers:   answers,
		Breakdown: make([]QuestionResult, 0, len(qz.Questions)),
	}

	for _, q := range qz.Questions {
		submitted, answered := answers[q.ID]
		correct := answered && submitted == q.CorrectAnswer

		res := QuestionResult{
			QuestionID:    q.ID,
			Submitted:     submitted,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       correct,
		}
		if correct {
			res.PointsEarned = q.Points
			att.Score += q.Points
		}
		att.MaxScore += q.Points
		att.Breakdown = append(att.Breakdown, res)
	}

	if att.MaxScore > 0 {
		att.Percentage = int(math.Round(100 * float64(att.Score) / float64(att.MaxScore)))
		att.Passed = att.Percentage >= qz.PassingScorePercent
	}
	return att
}
