package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusembo/maendeleo/core"
	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/gamification"
	"github.com/lusembo/maendeleo/core/progress"
)

type progressionApi struct {
	conf     *core.Config
	crsSvc   course.ServiceInterface
	progSvc  progress.ServiceInterface
	gamSvc   gamification.ServiceInterface
	validate *validator.Validate
}

func registerProgressionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := progressionApi{
		conf:     deps.Conf,
		crsSvc:   deps.CourseSvc,
		progSvc:  deps.ProgSvc,
		gamSvc:   deps.GamSvc,
		validate: deps.Validate,
	}

	ag := g.Group("", jwt)
	ag.GET("/courses", api.queryCourses)
	ag.GET("/courses/:id", api.retrieveCourse)
	ag.GET("/courses/:id/eligibility", api.eligibility)
	ag.POST("/courses/:id/enroll", api.enroll)
	ag.POST("/lessons/:id/completion", api.setLessonCompletion)
	ag.GET("/lessons/:id/progress", api.lessonProgress)
	ag.POST("/activity", api.recordActivity)
	ag.GET("/me/progression", api.progression)

	// manual adjustments; operational use only
	ag.POST("/xp", api.addXP, adminMiddleware())
	ag.POST("/badges", api.grantBadge, adminMiddleware())
}

// Handlers

func (api *progressionApi) queryCourses(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	overviews, err := api.crsSvc.Overview(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying course overviews")
	}
	return ctx.JSON(http.StatusOK, overviews)
}

func (api *progressionApi) retrieveCourse(ctx echo.Context) error {
	crs, err := api.crsSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *progressionApi) eligibility(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	elig, err := api.crsSvc.CanEnroll(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "checking eligibility")
	}
	return ctx.JSON(http.StatusOK, elig)
}

func (api *progressionApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	enr, err := api.crsSvc.Enroll(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *progressionApi) setLessonCompletion(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data CompletionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompletionRequest")
	}

	res, err := api.progSvc.SetLessonCompletion(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Completed)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) lessonProgress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	lp, err := api.progSvc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson progress")
	}
	return ctx.JSON(http.StatusOK, lp)
}

func (api *progressionApi) recordActivity(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	res, err := api.gamSvc.RecordActivity(ctx.Request().Context(), claims.Subject, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "recording activity")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) progression(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	prog, err := api.gamSvc.Progression(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting progression")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *progressionApi) addXP(ctx echo.Context) error {
	var data AddXPRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddXPRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	res, err := api.gamSvc.AddXP(ctx.Request().Context(), data.LearnerID, data.Amount, data.Reason)
	if err != nil {
		return errors.Wrap(err, "adding XP")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) grantBadge(ctx echo.Context) error {
	var data GrantBadgeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GrantBadgeRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	res, err := api.gamSvc.GrantBadgeIfAbsent(ctx.Request().Context(), data.LearnerID, data.Badge)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

type (
	CompletionRequest struct {
		Completed bool `json:"completed"`
	}

	AddXPRequest struct {
		LearnerID string `json:"learner_id" validate:"required"`
		Amount    int    `json:"amount" validate:"required,gt=0"`
		Reason    string `json:"reason" validate:"required"`
	}

	GrantBadgeRequest struct {
		LearnerID string `json:"learner_id" validate:"required"`
		Badge     string `json:"badge" validate:"required"`
	}
)
