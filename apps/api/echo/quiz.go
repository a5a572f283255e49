package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusembo/maendeleo/core/quiz"
)

type quizApi struct {
	svc      quiz.ServiceInterface
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := quizApi{
		svc:      deps.QuizSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/quizzes", jwt)
	ag.GET("/:id/questions", api.queryQuestions)
	ag.POST("/:id/grade", api.grade)
	ag.GET("/:id/attempts", api.queryAttempts)
}

// Handlers

func (api *quizApi) queryQuestions(ctx echo.Context) error {
	questions, err := api.svc.GetQuestions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting quiz questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) grade(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	att, err := api.svc.GradeAttempt(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.AttemptID, data.Answers)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *quizApi) queryAttempts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	attempts, err := api.svc.Attempts(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if attempts == nil {
		attempts = []quiz.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

type GradeRequest struct {
	// AttemptID may be client-generated (UUID) so retried submissions
	// surface as conflicts instead of duplicate attempts.
	AttemptID string         `json:"attempt_id" validate:"omitempty,uuid4"`
	Answers   quiz.AnswerSet `json:"answers"`
}
