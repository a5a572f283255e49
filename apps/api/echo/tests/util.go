package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/lusembo/maendeleo/apps/api/echo"
	"github.com/lusembo/maendeleo/core"
	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/gamification"
	"github.com/lusembo/maendeleo/core/progress"
	"github.com/lusembo/maendeleo/core/quiz"
	"github.com/lusembo/maendeleo/core/user"
	emailsvc "github.com/lusembo/maendeleo/services/email"
	inmemdb "github.com/lusembo/maendeleo/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	conf    *core.Config
	db      *inmemdb.DB
	server  Server
	usrRepo user.Repository
	crsRepo course.Repository
	gamRepo gamification.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	progRepo := inmemdb.NewProgressRepository(db)
	gamRepo := inmemdb.NewGamificationRepository(db)
	quizRepo := inmemdb.NewQuizRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo)
	crsSvc := course.NewService(crsRepo, progRepo)
	gamSvc := gamification.NewService(gamRepo, usrSvc, mailSvc, core.NopLogger{}, conf)
	progSvc := progress.NewService(progRepo, crsSvc, gamSvc, db, core.NopLogger{}, conf)
	quizSvc := quiz.NewService(quizRepo, crsSvc, gamSvc, db, core.NopLogger{})

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	server := NewServer(
		ServerDeps{
			Conf:       conf,
			Logger:     core.NopLogger{},
			UserSvc:    usrSvc,
			CourseSvc:  crsSvc,
			ProgSvc:    progSvc,
			GamSvc:     gamSvc,
			QuizSvc:    quizSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	return &testEnv{
		conf:    conf,
		db:      db,
		server:  server,
		usrRepo: usrRepo,
		crsRepo: crsRepo,
		gamRepo: gamRepo,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, env *testEnv, usr user.User) string {
	t.Helper()

	claims := GetUserClaims(env.conf, usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody() failed: %v; body: %s", err, rec.Body.String())
	}
}
