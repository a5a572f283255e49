package gamification

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/lusembo/maendeleo/core"
	"github.com/lusembo/maendeleo/core/user"
)

var (
	// errors
	ErrProfileNotFound = errors.New("gamification profile not found")
	ErrStreakNotFound  = errors.New("streak not found")
	ErrBadgeNotFound   = errors.New("badge not found")
)

type (
	Repository interface {
		GetProfile(ctx context.Context, learnerID string) (Profile, error)
		// AddXP atomically increments the learner's XP by delta and derives
		// the level from the new total (one level per levelXP); it creates
		// the profile on first award. The increment and the xp_awarded
		// bookkeeping around it must happen at the store's atomicity
		// boundary so concurrent awards cannot double-count.
		AddXP(ctx context.Context, learnerID string, delta, levelXP int) (Profile, error)

		GetStreak(ctx context.Context, learnerID string) (Streak, error)
		// RecordActivity applies AdvanceStreak for day as an atomic
		// read-modify-write keyed by learner.
		RecordActivity(ctx context.Context, learnerID string, day time.Time) (Streak, bool, error)

		GetBadgeByName(ctx context.Context, name string) (Badge, error)
		// CreateBadgeGrantIfAbsent reports whether a new grant was created;
		// at most one grant per (learner, badge) can ever exist.
		CreateBadgeGrantIfAbsent(ctx context.Context, learnerID, badgeID string, at time.Time) (bool, error)
		QueryLearnerBadges(ctx context.Context, learnerID string) ([]LearnerBadge, error)
	}

	ServiceInterface interface {
		AddXP(ctx context.Context, learnerID string, baseAmount int, reason string) (XPResult, error)
		RecordActivity(ctx context.Context, learnerID string, activityDate time.Time) (ActivityResult, error)
		GrantBadgeIfAbsent(ctx context.Context, learnerID, badgeName string) (GrantResult, error)
		Progression(ctx context.Context, learnerID string) (Progression, error)
	}

	Service struct {
		repo    Repository
		usrSvc  user.ServiceInterface
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	usrSvc user.ServiceInterface,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
}

// AddXP is the single writer of learner XP: every XP-granting event (lesson
// completion, course completion, quiz score) routes through here so the
// streak bonus applies uniformly. The bonus reflects the streak as of the
// call; callers record activity first.
func (svc *Service) AddXP(ctx context.Context, learnerID string, baseAmount int, reason string) (XPResult, error) {
	var current int
	if streak, err := svc.repo.GetStreak(ctx, learnerID); err == nil {
		current = streak.Current
	} else if err != ErrStreakNotFound {
		return XPResult{}, err
	}

	gc := svc.conf.Gamification
	bonus := StreakBonus(current, gc.StreakBonusStep, gc.StreakBonusMax)
	total := baseAmount + bonus

	prof, err := svc.repo.AddXP(ctx, learnerID, total, gc.LevelXP)
	if err != nil {
		return XPResult{}, err
	}

	svc.logger.Info(fmt.Sprintf("awarded %d XP (%d + %d streak bonus) to %s: %s", total, baseAmount, bonus, learnerID, reason))
	return XPResult{
		TotalAwarded: total,
		StreakBonus:  bonus,
		XP:           prof.XP,
		NewLevel:     prof.Level,
	}, nil
}

// RecordActivity advances the learner's consecutive-day streak for
// activityDate. Must run before AddXP so the bonus sees the fresh streak.
func (svc *Service) RecordActivity(ctx context.Context, learnerID string, activityDate time.Time) (ActivityResult, error) {
	streak, increased, err := svc.repo.RecordActivity(ctx, learnerID, activityDate)
	if err != nil {
		return ActivityResult{}, err
	}
	return ActivityResult{
		CurrentStreak:   streak.Current,
		LongestStreak:   streak.Longest,
		StreakIncreased: increased,
	}, nil
}

// GrantBadgeIfAbsent grants the named badge to the learner unless they
// already hold it. It knows nothing of why; trigger mapping is the
// caller's concern.
func (svc *Service) GrantBadgeIfAbsent(ctx context.Context, learnerID, badgeName string) (GrantResult, error) {
	badge, err := svc.repo.GetBadgeByName(ctx, badgeName)
	if err != nil {
		return GrantResult{}, err
	}

	created, err := svc.repo.CreateBadgeGrantIfAbsent(ctx, learnerID, badge.ID, time.Now().UTC())
	if err != nil {
		return GrantResult{}, err
	}
	if created {
		svc.notifyBadgeEarned(ctx, learnerID, badge)
	}
	return GrantResult{Granted: created}, nil
}

// Progression assembles the learner's profile, streak and badges for the
// dashboard widget. Absent records read as fresh defaults.
func (svc *Service) Progression(ctx context.Context, learnerID string) (Progression, error) {
	prof, err := svc.repo.GetProfile(ctx, learnerID)
	if err == ErrProfileNotFound {
		prof = Profile{LearnerID: learnerID, Level: 1}
	} else if err != nil {
		return Progression{}, err
	}

	streak, err := svc.repo.GetStreak(ctx, learnerID)
	if err == ErrStreakNotFound {
		streak = Streak{LearnerID: learnerID}
	} else if err != nil {
		return Progression{}, err
	}

	badges, err := svc.repo.QueryLearnerBadges(ctx, learnerID)
	if err != nil {
		return Progression{}, err
	}
	if badges == nil {
		badges = []LearnerBadge{}
	}

	return Progression{
		Profile:     prof,
		NextLevelXP: prof.Level * svc.conf.Gamification.LevelXP,
		Streak:      streak,
		Badges:      badges,
	}, nil
}

// MilestoneBadges maps a streak length to the streak badges it unlocks.
func MilestoneBadges(currentStreak int) []string {
	var names []string
	if currentStreak >= busyBeeStreak {
		names = append(names, BadgeBusyBee)
	}
	if currentStreak >= unstoppableStreak {
		names = append(names, BadgeUnstoppable)
	}
	return names
}

func (svc *Service) notifyBadgeEarned(ctx context.Context, learnerID string, badge Badge) {
	if svc.mailSvc == nil || svc.usrSvc == nil {
		return
	}
	usr, err := svc.usrSvc.GetByID(ctx, learnerID)
	if err != nil || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "You earned a new badge!",
		BodyStr: fmt.Sprintf("Congratulations %s, you just earned the %q badge: %s", usr.Name, badge.Name, badge.Description),
	})
}
