package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/lusembo/maendeleo/core"
	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/gamification"
)

type (
	Repository interface {
		GetLessonProgress(ctx context.Context, learnerID, lessonID string) (LessonProgress, error)
		// MarkCompleted upserts the ledger record with completed=true as a
		// single conditional write. completedNow reports a false->true
		// completion transition; awardedNow reports the one-time
		// xp_awarded flip. Two concurrent calls can never both see
		// awardedNow=true: the flip happens at the store's atomicity
		// boundary, not in application code.
		MarkCompleted(ctx context.Context, learnerID, lessonID string, at time.Time) (completedNow, awardedNow bool, err error)
		// MarkUncompleted clears completed but leaves xp_awarded as is:
		// undo never claws back granted XP.
		MarkUncompleted(ctx context.Context, learnerID, lessonID string, at time.Time) error
		// MarkCourseCompleted records that the learner finished the course,
		// reporting whether this call created the record. At most one record
		// per (learner, course) ever exists, so the course bonus cannot be
		// re-earned by toggling the last lesson.
		MarkCourseCompleted(ctx context.Context, learnerID, courseID string, at time.Time) (bool, error)
		CountCompletedLessons(ctx context.Context, learnerID, courseID string) (int, error)
		CountCompletedForLearner(ctx context.Context, learnerID string) (int, error)
	}

	ServiceInterface interface {
		SetLessonCompletion(ctx context.Context, learnerID, lessonID string, completed bool) (CompletionResult, error)
		Get(ctx context.Context, learnerID, lessonID string) (LessonProgress, error)
	}

	Service struct {
		repo   Repository
		crsSvc course.ServiceInterface
		gmSvc  gamification.ServiceInterface
		atomic core.Atomic
		logger core.Logger
		conf   *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	crsSvc course.ServiceInterface,
	gmSvc gamification.ServiceInterface,
	atomic core.Atomic,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:   repo,
		crsSvc: crsSvc,
		gmSvc:  gmSvc,
		atomic: atomic,
		logger: logger,
		conf:   conf,
	}
}

func (svc *Service) Get(ctx context.Context, learnerID, lessonID string) (LessonProgress, error) {
	return svc.repo.GetLessonProgress(ctx, learnerID, lessonID)
}

// SetLessonCompletion records a lesson completion (or its undo) and runs the
// achievement pipeline: streak first, then lesson XP, then course-completion
// bonus and badge triggers. The whole call is all-or-nothing.
func (svc *Service) SetLessonCompletion(ctx context.Context, learnerID, lessonID string, completed bool) (CompletionResult, error) {
	lesson, err := svc.crsSvc.GetLesson(ctx, lessonID)
	if err != nil {
		return CompletionResult{}, err
	}
	enrolled, err := svc.crsSvc.IsEnrolled(ctx, learnerID, lesson.CourseID)
	if err != nil {
		return CompletionResult{}, err
	}
	if !enrolled {
		return CompletionResult{}, course.ErrNotEnrolled
	}

	now := time.Now().UTC()

	if !completed {
		if err := svc.repo.MarkUncompleted(ctx, learnerID, lessonID, now); err != nil {
			return CompletionResult{}, errors.Wrap(err, "marking lesson uncompleted")
		}
		return CompletionResult{}, nil
	}

	var result CompletionResult
	err = svc.atomic.Atomic(ctx, func(ctx context.Context) error {
		completedNow, awardedNow, err := svc.repo.MarkCompleted(ctx, learnerID, lessonID, now)
		if err != nil {
			return errors.Wrap(err, "marking lesson completed")
		}
		if !completedNow {
			return nil // already complete; nothing to award
		}

		// streak before XP so the bonus sees the fresh streak
		activity, err := svc.gmSvc.RecordActivity(ctx, learnerID, now)
		if err != nil {
			return errors.Wrap(err, "recording activity")
		}

		if awardedNow {
			xpRes, err := svc.gmSvc.AddXP(ctx, learnerID, svc.conf.Gamification.LessonXP, "lesson completed: "+lesson.Title)
			if err != nil {
				return errors.Wrap(err, "awarding lesson XP")
			}
			result.XPGranted = svc.conf.Gamification.LessonXP
			result.StreakBonus = xpRes.StreakBonus
			result.NewLevel = xpRes.NewLevel

			if err := svc.grantFirstLessonBadge(ctx, learnerID, &result); err != nil {
				return err
			}
		}

		if err := svc.handleCourseCompletion(ctx, learnerID, lesson.CourseID, &result); err != nil {
			return err
		}

		for _, name := range gamification.MilestoneBadges(activity.CurrentStreak) {
			if err := svc.grantBadge(ctx, learnerID, name, &result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}
	return result, nil
}

// handleCourseCompletion awards the course bonus the one time a completion
// call brings the course's lesson set to 100%. The bonus rides a one-time
// completion record, like lesson XP rides xp_awarded: undoing and redoing
// the last lesson never pays twice.
func (svc *Service) handleCourseCompletion(ctx context.Context, learnerID, courseID string, result *CompletionResult) error {
	crs, err := svc.crsSvc.GetByID(ctx, courseID)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	if len(crs.Lessons) == 0 {
		return nil
	}

	completed, err := svc.repo.CountCompletedLessons(ctx, learnerID, courseID)
	if err != nil {
		return errors.Wrap(err, "counting completed lessons")
	}
	if completed < len(crs.Lessons) {
		return nil
	}

	first, err := svc.repo.MarkCourseCompleted(ctx, learnerID, courseID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "recording course completion")
	}
	if !first { // course was completed before; nothing more to award
		return nil
	}

	result.CourseCompletedNow = true
	xpRes, err := svc.gmSvc.AddXP(ctx, learnerID, svc.conf.Gamification.CourseBonusXP, "course completed: "+crs.Name)
	if err != nil {
		return errors.Wrap(err, "awarding course bonus XP")
	}
	result.CourseBonus = svc.conf.Gamification.CourseBonusXP
	result.NewLevel = xpRes.NewLevel

	svc.logger.Info(fmt.Sprintf("learner %s completed course %s", learnerID, crs.Name))
	return svc.grantBadge(ctx, learnerID, gamification.BadgeCourseConqueror, result)
}

func (svc *Service) grantFirstLessonBadge(ctx context.Context, learnerID string, result *CompletionResult) error {
	count, err := svc.repo.CountCompletedForLearner(ctx, learnerID)
	if err != nil {
		return errors.Wrap(err, "counting learner completions")
	}
	if count != 1 { // the lesson just completed is the learner's first
		return nil
	}
	return svc.grantBadge(ctx, learnerID, gamification.BadgeFirstSteps, result)
}

func (svc *Service) grantBadge(ctx context.Context, learnerID, name string, result *CompletionResult) error {
	res, err := svc.gmSvc.GrantBadgeIfAbsent(ctx, learnerID, name)
	if err != nil {
		return errors.Wrap(err, "granting badge "+name)
	}
	if res.Granted {
		result.BadgesGranted = append(result.BadgesGranted, name)
	}
	return nil
}
