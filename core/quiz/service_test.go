package quiz_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusembo/maendeleo/core"
	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/gamification"
	"github.com/lusembo/maendeleo/core/quiz"
	inmemdb "github.com/lusembo/maendeleo/storage/database/inmem"
	testutil "github.com/lusembo/maendeleo/tests"
)

type fixture struct {
	db      *inmemdb.DB
	svc     *quiz.Service
	gamRepo gamification.Repository
	crsRepo course.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false

	db := inmemdb.NewDB()
	crsRepo := inmemdb.NewCourseRepository(db)
	progRepo := inmemdb.NewProgressRepository(db)
	gamRepo := inmemdb.NewGamificationRepository(db)
	quizRepo := inmemdb.NewQuizRepository(db)

	crsSvc := course.NewService(crsRepo, progRepo)
	gamSvc := gamification.NewService(gamRepo, nil, nil, core.NopLogger{}, conf)
	svc := quiz.NewService(quizRepo, crsSvc, gamSvc, db, core.NopLogger{})

	return &fixture{db: db, svc: svc, gamRepo: gamRepo, crsRepo: crsRepo}
}

func createQuiz(t *testing.T, f *fixture) quiz.Quiz {
	t.Helper()

	crs := testutil.CreateCourse(t, f.db, "Intro to Go", 2)
	testutil.Enroll(t, f.crsRepo, "learner-1", crs.ID)
	return testutil.CreateQuiz(t, f.db, crs.ID, "Go Basics", 60,
		quiz.Question{
			Text:          "Which keyword declares a function?",
			Type:          quiz.TypeMultipleChoice,
			Options:       []string{"def", "func", "fn", "function"},
			CorrectAnswer: "func",
			Points:        10,
		},
		quiz.Question{
			Text:          "A nil map can be written to.",
			Type:          quiz.TypeTrueFalse,
			Options:       []string{"true", "false"},
			CorrectAnswer: "false",
			Points:        10,
		},
	)
}

func TestService_GetQuestions_neverLeaksAnswerKey(t *testing.T) {
	f := setup(t)
	qz := createQuiz(t, f)

	questions, err := f.svc.GetQuestions(context.Background(), qz.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	// the serialized payload is what a client sees: no answer field at all
	data, err := json.Marshal(questions)
	require.NoError(t, err)

	var payload []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	for _, q := range payload {
		assert.NotContains(t, q, "correct_answer")
		for key := range q {
			assert.Contains(t, []string{"id", "text", "type", "options", "points"}, key)
		}
	}
}

func TestService_GradeAttempt(t *testing.T) {
	f := setup(t)
	qz := createQuiz(t, f)
	ctx := context.Background()

	// one of two correct: 50% < 60% threshold
	att, err := f.svc.GradeAttempt(ctx, "learner-1", qz.ID, "", quiz.AnswerSet{
		qz.Questions[0].ID: "func",
		qz.Questions[1].ID: "true",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, att.Score)
	assert.Equal(t, 20, att.MaxScore)
	assert.Equal(t, 50, att.Percentage)
	assert.False(t, att.Passed)
	assert.NotEmpty(t, att.ID)

	require.Len(t, att.Breakdown, 2)
	assert.True(t, att.Breakdown[0].Correct)
	assert.Equal(t, 10, att.Breakdown[0].PointsEarned)
	assert.False(t, att.Breakdown[1].Correct)
	assert.Equal(t, "false", att.Breakdown[1].CorrectAnswer) // review reveals the key

	// quiz XP is half the raw score
	prof, err := f.gamRepo.GetProfile(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 5, prof.XP)

	// failing does not earn the badge
	badges, err := f.gamRepo.QueryLearnerBadges(ctx, "learner-1")
	require.NoError(t, err)
	assert.Empty(t, badges)
}

func TestService_GradeAttempt_passEarnsBadge(t *testing.T) {
	f := setup(t)
	qz := createQuiz(t, f)
	ctx := context.Background()

	att, err := f.svc.GradeAttempt(ctx, "learner-1", qz.ID, "", quiz.AnswerSet{
		qz.Questions[0].ID: "func",
		qz.Questions[1].ID: "false",
	})
	require.NoError(t, err)
	assert.Equal(t, 100, att.Percentage)
	assert.True(t, att.Passed)

	badges, err := f.gamRepo.QueryLearnerBadges(ctx, "learner-1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, gamification.BadgeQuizWhiz, badges[0].Name)
}

func TestService_GradeAttempt_exactThresholdPasses(t *testing.T) {
	f := setup(t)
	crs := testutil.CreateCourse(t, f.db, "Solo Course", 1)
	testutil.Enroll(t, f.crsRepo, "learner-1", crs.ID)
	qz := testutil.CreateQuiz(t, f.db, crs.ID, "Coin Flip", 50,
		quiz.Question{Text: "q1", Type: quiz.TypeTrueFalse, Options: []string{"true", "false"}, CorrectAnswer: "true", Points: 10},
		quiz.Question{Text: "q2", Type: quiz.TypeTrueFalse, Options: []string{"true", "false"}, CorrectAnswer: "true", Points: 10},
	)

	att, err := f.svc.GradeAttempt(context.Background(), "learner-1", qz.ID, "", quiz.AnswerSet{
		qz.Questions[0].ID: "true",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, att.Percentage)
	assert.True(t, att.Passed)
}

func TestService_GradeAttempt_duplicateAttemptID(t *testing.T) {
	f := setup(t)
	qz := createQuiz(t, f)
	ctx := context.Background()
	attemptID := uuid.New().String()

	_, err := f.svc.GradeAttempt(ctx, "learner-1", qz.ID, attemptID, quiz.AnswerSet{})
	require.NoError(t, err)

	// a retried submission with the same ID must not grade twice
	_, err = f.svc.GradeAttempt(ctx, "learner-1", qz.ID, attemptID, quiz.AnswerSet{})
	assert.Equal(t, quiz.ErrAlreadyGraded, err)

	attempts, err := f.svc.Attempts(ctx, "learner-1", qz.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestService_GradeAttempt_retakesAccumulate(t *testing.T) {
	f := setup(t)
	qz := createQuiz(t, f)
	ctx := context.Background()

	_, err := f.svc.GradeAttempt(ctx, "learner-1", qz.ID, "", quiz.AnswerSet{})
	require.NoError(t, err)
	_, err = f.svc.GradeAttempt(ctx, "learner-1", qz.ID, "", quiz.AnswerSet{qz.Questions[0].ID: "func"})
	require.NoError(t, err)

	attempts, err := f.svc.Attempts(ctx, "learner-1", qz.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestService_GradeAttempt_foreignQuestion(t *testing.T) {
	f := setup(t)
	qz := createQuiz(t, f)

	_, err := f.svc.GradeAttempt(context.Background(), "learner-1", qz.ID, "", quiz.AnswerSet{
		"not-a-question": "42",
	})
	assert.Equal(t, quiz.ErrInvalidAnswerSet, err)
}

func TestService_GradeAttempt_notEnrolled(t *testing.T) {
	f := setup(t)
	qz := createQuiz(t, f)

	_, err := f.svc.GradeAttempt(context.Background(), "learner-2", qz.ID, "", quiz.AnswerSet{})
	assert.Equal(t, course.ErrNotEnrolled, err)
}

func TestService_GradeAttempt_emptyQuiz(t *testing.T) {
	f := setup(t)
	crs := testutil.CreateCourse(t, f.db, "Empty Course", 1)
	testutil.Enroll(t, f.crsRepo, "learner-1", crs.ID)
	qz := testutil.CreateQuiz(t, f.db, crs.ID, "Empty Quiz", 60)

	att, err := f.svc.GradeAttempt(context.Background(), "learner-1", qz.ID, "", quiz.AnswerSet{})
	require.NoError(t, err)
	assert.Equal(t, 0, att.Score)
	assert.Equal(t, 0, att.MaxScore)
	assert.Equal(t, 0, att.Percentage)
	assert.False(t, att.Passed)
}

func TestService_GradeAttempt_unknownQuiz(t *testing.T) {
	f := setup(t)

	_, err := f.svc.GradeAttempt(context.Background(), "learner-1", "nope", "", quiz.AnswerSet{})
	assert.Equal(t, quiz.ErrNotFound, err)
}
