package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/lusembo/maendeleo/core/gamification"
)

type gamificationRepository struct {
	db *DB
}

var _ gamification.Repository = (*gamificationRepository)(nil)

func NewGamificationRepository(db *DB) *gamificationRepository {
	return &gamificationRepository{db: db}
}

func (repo *gamificationRepository) GetProfile(ctx context.Context, learnerID string) (gamification.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	prof, ok := repo.db.profiles[learnerID]
	if !ok {
		return gamification.Profile{}, gamification.ErrProfileNotFound
	}
	return prof, nil
}

func (repo *gamificationRepository) AddXP(ctx context.Context, learnerID string, delta, levelXP int) (gamification.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	prof, ok := repo.db.profiles[learnerID]
	if !ok {
		prof = gamification.Profile{LearnerID: learnerID}
	}
	prof.XP += delta
	prof.Level = gamification.LevelForXP(prof.XP, levelXP)
	repo.db.profiles[learnerID] = prof
	return prof, nil
}

func (repo *gamificationRepository) GetStreak(ctx context.Context, learnerID string) (gamification.Streak, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	streak, ok := repo.db.streaks[learnerID]
	if !ok {
		return gamification.Streak{}, gamification.ErrStreakNotFound
	}
	return streak, nil
}

func (repo *gamificationRepository) RecordActivity(ctx context.Context, learnerID string, day time.Time) (gamification.Streak, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	streak, ok := repo.db.streaks[learnerID]
	if !ok {
		streak = gamification.Streak{LearnerID: learnerID}
	}
	streak, increased := gamification.AdvanceStreak(streak, day)
	repo.db.streaks[learnerID] = streak
	return streak, increased, nil
}

func (repo *gamificationRepository) GetBadgeByName(ctx context.Context, name string) (gamification.Badge, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, badge := range repo.db.badges {
		if badge.Name == name {
			return badge, nil
		}
	}
	return gamification.Badge{}, gamification.ErrBadgeNotFound
}

func (repo *gamificationRepository) CreateBadgeGrantIfAbsent(ctx context.Context, learnerID, badgeID string, at time.Time) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	k := key(learnerID, badgeID)
	if _, ok := repo.db.grants[k]; ok {
		return false, nil
	}
	repo.db.grants[k] = gamification.BadgeGrant{LearnerID: learnerID, BadgeID: badgeID, CreatedAt: at}
	return true, nil
}

func (repo *gamificationRepository) QueryLearnerBadges(ctx context.Context, learnerID string) ([]gamification.LearnerBadge, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var badges []gamification.LearnerBadge
	for _, grant := range repo.db.grants {
		if grant.LearnerID != learnerID {
			continue
		}
		badge, ok := repo.db.badges[grant.BadgeID]
		if !ok {
			continue
		}
		badges = append(badges, gamification.LearnerBadge{Badge: badge, GrantedAt: grant.CreatedAt})
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].GrantedAt.Before(badges[j].GrantedAt) })
	return badges, nil
}
