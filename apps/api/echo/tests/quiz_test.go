package tests

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusembo/maendeleo/core/quiz"
	"github.com/lusembo/maendeleo/core/user"
	testutil "github.com/lusembo/maendeleo/tests"
)

func quizFixture(t *testing.T, env *testEnv, learnerID string) quiz.Quiz {
	t.Helper()

	crs := testutil.CreateCourse(t, env.db, "Intro to Go", 1)
	testutil.Enroll(t, env.crsRepo, learnerID, crs.ID)
	return testutil.CreateQuiz(t, env.db, crs.ID, "Go Basics", 60,
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

func TestQuizApi_queryQuestions(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	qz := quizFixture(t, env, usr.ID)

	req, rec := newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID+"/questions", getToken(t, env, usr))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the wire payload must never carry the answer key
	var payload []map[string]interface{}
	decodeBody(t, rec, &payload)
	require.Len(t, payload, 2)
	for _, q := range payload {
		assert.NotContains(t, q, "correct_answer")
		for key := range q {
			assert.Contains(t, []string{"id", "text", "type", "options", "points"}, key)
		}
	}
}

func TestQuizApi_queryQuestions_unknownQuiz(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/quizzes/nope/questions", getToken(t, env, usr))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestQuizApi_grade(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	token := getToken(t, env, usr)
	qz := quizFixture(t, env, usr.ID)

	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/grade", token,
		marshallObj(t, map[string]interface{}{
			"answers": quiz.AnswerSet{
				qz.Questions[0].ID: "func",
				qz.Questions[1].ID: "false",
			},
		}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var att quiz.Attempt
	decodeBody(t, rec, &att)
	assert.Equal(t, 20, att.Score)
	assert.Equal(t, 100, att.Percentage)
	assert.True(t, att.Passed)
	assert.Equal(t, usr.ID, att.LearnerID)
	require.Len(t, att.Breakdown, 2)
	assert.Equal(t, "func", att.Breakdown[0].CorrectAnswer)
}

func TestQuizApi_grade_duplicateAttemptID(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	token := getToken(t, env, usr)
	qz := quizFixture(t, env, usr.ID)

	body := marshallObj(t, map[string]interface{}{
		"attempt_id": uuid.New().String(),
		"answers":    quiz.AnswerSet{},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/grade", token, body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// same attempt ID again: conflict, not a second attempt
	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/grade", token, body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID+"/attempts", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var attempts []quiz.Attempt
	decodeBody(t, rec, &attempts)
	assert.Len(t, attempts, 1)
}

func TestQuizApi_grade_foreignQuestion(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	qz := quizFixture(t, env, usr.ID)

	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/grade", getToken(t, env, usr),
		marshallObj(t, map[string]interface{}{
			"answers": quiz.AnswerSet{"not-a-question": "42"},
		}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestQuizApi_grade_notEnrolled(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, env.usrRepo, "Neema", "neema1", "neema@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	qz := quizFixture(t, env, usr.ID)

	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/grade", getToken(t, env, other),
		marshallObj(t, map[string]interface{}{"answers": quiz.AnswerSet{}}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestQuizApi_queryAttempts_empty(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	qz := quizFixture(t, env, usr.ID)

	req, rec := newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID+"/attempts", getToken(t, env, usr))
	env.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "[]\n", rec.Body.String())
}
