package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/gamification"
	"github.com/lusembo/maendeleo/core/progress"
	"github.com/lusembo/maendeleo/core/user"
	testutil "github.com/lusembo/maendeleo/tests"
)

func TestProgressionApi_requiresAuth(t *testing.T) {
	env := setup(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/courses"},
		{http.MethodGet, "/v1/courses/x/eligibility"},
		{http.MethodPost, "/v1/courses/x/enroll"},
		{http.MethodPost, "/v1/lessons/x/completion"},
		{http.MethodPost, "/v1/activity"},
		{http.MethodGet, "/v1/me/progression"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req, rec := newRequest(p.method, p.path)
			env.server.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body httpErr
			decodeBody(t, rec, &body)
			assert.Equal(t, errMissingToken, body)
		})
	}
}

func TestProgressionApi_enrollFlow(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	token := getToken(t, env, usr)

	intro := testutil.CreateCourse(t, env.db, "Intro to Go", 1)
	advanced := testutil.CreateCourse(t, env.db, "Advanced Go", 2, intro.ID)

	// eligibility reports the blocking prerequisite
	req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+advanced.ID+"/eligibility", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var elig course.Eligibility
	decodeBody(t, rec, &elig)
	assert.False(t, elig.Eligible)
	require.Len(t, elig.Blocking, 1)
	assert.Equal(t, intro.ID, elig.Blocking[0].ID)

	// enrolling while blocked is a 400 carrying the blocking list
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+advanced.ID+"/enroll", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var blocked struct {
		Error    string                  `json:"error"`
		Blocking []course.BlockingCourse `json:"blocking"`
	}
	decodeBody(t, rec, &blocked)
	assert.Equal(t, "course prerequisites unmet", blocked.Error)
	require.Len(t, blocked.Blocking, 1)

	// enroll in the prerequisite and complete it
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+intro.ID+"/enroll", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons/"+intro.Lessons[0].ID+"/completion", token,
		marshallObj(t, map[string]bool{"completed": true}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// now eligible
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+advanced.ID+"/enroll", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestProgressionApi_lessonCompletion(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	token := getToken(t, env, usr)

	crs := testutil.CreateCourse(t, env.db, "Intro to Go", 2)
	other := testutil.CreateCourse(t, env.db, "Other Course", 1)
	testutil.Enroll(t, env.crsRepo, usr.ID, crs.ID)

	// not enrolled in the lesson's course
	req, rec := newAuthRequest(http.MethodPost, "/v1/lessons/"+other.Lessons[0].ID+"/completion", token,
		marshallObj(t, map[string]bool{"completed": true}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	// unknown lesson
	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons/nope/completion", token,
		marshallObj(t, map[string]bool{"completed": true}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	// first completion pays out
	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons/"+crs.Lessons[0].ID+"/completion", token,
		marshallObj(t, map[string]bool{"completed": true}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res progress.CompletionResult
	decodeBody(t, rec, &res)
	assert.Equal(t, env.conf.Gamification.LessonXP, res.XPGranted)
	assert.Contains(t, res.BadgesGranted, gamification.BadgeFirstSteps)

	// repeat completion pays nothing
	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons/"+crs.Lessons[0].ID+"/completion", token,
		marshallObj(t, map[string]bool{"completed": true}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res = progress.CompletionResult{}
	decodeBody(t, rec, &res)
	assert.Equal(t, 0, res.XPGranted)
	assert.Empty(t, res.BadgesGranted)
}

func TestProgressionApi_courseList(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	token := getToken(t, env, usr)

	crs := testutil.CreateCourse(t, env.db, "Intro to Go", 2)
	testutil.Enroll(t, env.crsRepo, usr.ID, crs.ID)

	req, rec := newAuthRequest(http.MethodGet, "/v1/courses", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var overviews []course.Overview
	decodeBody(t, rec, &overviews)
	require.Len(t, overviews, 1)
	assert.True(t, overviews[0].Enrolled)
	assert.Equal(t, 2, overviews[0].LessonCount)
}

func TestProgressionApi_activityAndProgression(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)
	token := getToken(t, env, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/activity", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var act gamification.ActivityResult
	decodeBody(t, rec, &act)
	assert.Equal(t, 1, act.CurrentStreak)
	assert.True(t, act.StreakIncreased)

	req, rec = newAuthRequest(http.MethodGet, "/v1/me/progression", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var prog gamification.Progression
	decodeBody(t, rec, &prog)
	assert.Equal(t, 1, prog.Streak.Current)
	assert.Equal(t, 1, prog.Profile.Level)
	assert.Equal(t, env.conf.Gamification.LevelXP, prog.NextLevelXP)
	assert.Empty(t, prog.Badges)
}

func TestProgressionApi_adminAdjustments(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.cd", "s3cr3tWord", user.AllRoles, true)
	student := testutil.CreateUser(t, env.usrRepo, "Amani", "amani", "amani@test.cd", "s3cr3tWord", []string{user.RoleStudent}, true)

	xpBody := marshallObj(t, map[string]interface{}{
		"learner_id": student.ID,
		"amount":     25,
		"reason":     "support adjustment",
	})

	// students may not adjust XP
	req, rec := newAuthRequest(http.MethodPost, "/v1/xp", getToken(t, env, student), xpBody)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPost, "/v1/xp", getToken(t, env, admin), xpBody)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res gamification.XPResult
	decodeBody(t, rec, &res)
	assert.Equal(t, 25, res.XP)

	// manual badge grant, twice: second one is a no-op
	badgeBody := marshallObj(t, map[string]string{
		"learner_id": student.ID,
		"badge":      gamification.BadgeQuizWhiz,
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/badges", getToken(t, env, admin), badgeBody)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var grant gamification.GrantResult
	decodeBody(t, rec, &grant)
	assert.True(t, grant.Granted)

	req, rec = newAuthRequest(http.MethodPost, "/v1/badges", getToken(t, env, admin), badgeBody)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	decodeBody(t, rec, &grant)
	assert.False(t, grant.Granted)

	// unknown badge name
	req, rec = newAuthRequest(http.MethodPost, "/v1/badges", getToken(t, env, admin),
		marshallObj(t, map[string]string{"learner_id": student.ID, "badge": "Time Traveler"}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
