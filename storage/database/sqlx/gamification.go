package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lusembo/maendeleo/core/gamification"
)

type profileRow struct {
	UserID string `db:"user_id"`
	XP     int    `db:"xp"`
	Level  int    `db:"level"`
}

type streakRow struct {
	UserID           string    `db:"user_id"`
	CurrentStreak    int       `db:"current_streak"`
	LongestStreak    int       `db:"longest_streak"`
	LastActivityDate time.Time `db:"last_activity_date"`
}

func (r streakRow) toStreak() gamification.Streak {
	return gamification.Streak{
		LearnerID:        r.UserID,
		Current:          r.CurrentStreak,
		Longest:          r.LongestStreak,
		LastActivityDate: r.LastActivityDate,
	}
}

type gamificationRepository struct {
	db *sqlx.DB
}

var _ gamification.Repository = (*gamificationRepository)(nil)

func NewGamificationRepository(db *sqlx.DB) *gamificationRepository {
	return &gamificationRepository{db: db}
}

func (repo *gamificationRepository) GetProfile(ctx context.Context, learnerID string) (gamification.Profile, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, ext(ctx, repo.db), &row,
		`SELECT * FROM gamification_profile WHERE user_id = $1`, learnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return gamification.Profile{}, gamification.ErrProfileNotFound
		}
		return gamification.Profile{}, err
	}
	return gamification.Profile{LearnerID: row.UserID, XP: row.XP, Level: row.Level}, nil
}

// AddXP increments and re-derives the level in a single upsert so two
// concurrent awards both land; level = xp/levelXP + 1 stays an integer
// division on both sides of the conflict.
func (repo *gamificationRepository) AddXP(ctx context.Context, learnerID string, delta, levelXP int) (gamification.Profile, error) {
	var row profileRow
	err := ext(ctx, repo.db).QueryRowxContext(ctx,
		`INSERT INTO gamification_profile (user_id, xp, level)
		 VALUES ($1, $2, $2 / $3 + 1)
		 ON CONFLICT (user_id) DO UPDATE
		 SET xp    = gamification_profile.xp + EXCLUDED.xp,
		     level = (gamification_profile.xp + EXCLUDED.xp) / $3 + 1
		 RETURNING user_id, xp, level`,
		learnerID, delta, levelXP,
	).StructScan(&row)
	if err != nil {
		return gamification.Profile{}, err
	}
	return gamification.Profile{LearnerID: row.UserID, XP: row.XP, Level: row.Level}, nil
}

func (repo *gamificationRepository) GetStreak(ctx context.Context, learnerID string) (gamification.Streak, error) {
	var row streakRow
	err := sqlx.GetContext(ctx, ext(ctx, repo.db), &row,
		`SELECT * FROM streaks WHERE user_id = $1`, learnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return gamification.Streak{}, gamification.ErrStreakNotFound
		}
		return gamification.Streak{}, err
	}
	return row.toStreak(), nil
}

// RecordActivity steps the streak: same day keeps it, the next day
// increments it, a gap resets it to 1, a past day changes nothing. Both
// writes report through conditions re-evaluated under the row lock, so a
// concurrent same-day call can step (and report increased) at most once.
func (repo *gamificationRepository) RecordActivity(ctx context.Context, learnerID string, day time.Time) (gamification.Streak, bool, error) {
	day = day.UTC().Truncate(24 * time.Hour)
	ex := ext(ctx, repo.db)

	var row streakRow
	err := ex.QueryRowxContext(ctx,
		`INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date)
		 VALUES ($1, 1, 1, $2::date)
		 ON CONFLICT (user_id) DO NOTHING
		 RETURNING user_id, current_streak, longest_streak, last_activity_date`,
		learnerID, day,
	).StructScan(&row)
	if err == nil { // first activity ever
		return row.toStreak(), true, nil
	}
	if err != sql.ErrNoRows {
		return gamification.Streak{}, false, err
	}

	// existing row: step it only when day moves past the stored date
	err = ex.QueryRowxContext(ctx,
		`UPDATE streaks
		 SET current_streak = CASE
		         WHEN $2::date = last_activity_date + 1 THEN current_streak + 1
		         ELSE 1
		     END,
		     longest_streak = GREATEST(longest_streak, CASE
		         WHEN $2::date = last_activity_date + 1 THEN current_streak + 1
		         ELSE 1
		     END),
		     last_activity_date = $2::date
		 WHERE user_id = $1 AND last_activity_date < $2::date
		 RETURNING user_id, current_streak, longest_streak, last_activity_date`,
		learnerID, day,
	).StructScan(&row)
	if err == nil {
		// a gap resets to 1 (no increase); a consecutive day always lands >1
		return row.toStreak(), row.CurrentStreak > 1, nil
	}
	if err != sql.ErrNoRows {
		return gamification.Streak{}, false, err
	}

	// same or past day: nothing stepped
	streak, err := repo.GetStreak(ctx, learnerID)
	if err != nil {
		return gamification.Streak{}, false, err
	}
	return streak, false, nil
}

func (repo *gamificationRepository) GetBadgeByName(ctx context.Context, name string) (gamification.Badge, error) {
	var badge gamification.Badge
	err := sqlx.GetContext(ctx, ext(ctx, repo.db), &badge,
		`SELECT id, name, description FROM badges WHERE name = $1`, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return gamification.Badge{}, gamification.ErrBadgeNotFound
		}
		return gamification.Badge{}, err
	}
	return badge, nil
}

func (repo *gamificationRepository) CreateBadgeGrantIfAbsent(ctx context.Context, learnerID, badgeID string, at time.Time) (bool, error) {
	res, err := ext(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO badge_grants (user_id, badge_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, badge_id) DO NOTHING`,
		learnerID, badgeID, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (repo *gamificationRepository) QueryLearnerBadges(ctx context.Context, learnerID string) ([]gamification.LearnerBadge, error) {
	type learnerBadgeRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		GrantedAt   time.Time `db:"granted_at"`
	}
	var rows []learnerBadgeRow
	err := sqlx.SelectContext(ctx, ext(ctx, repo.db), &rows,
		`SELECT b.id, b.name, b.description, bg.created_at AS granted_at
		 FROM badge_grants bg
		 JOIN badges b ON b.id = bg.badge_id
		 WHERE bg.user_id = $1
		 ORDER BY bg.created_at`,
		learnerID)
	if err != nil {
		return nil, err
	}
	badges := make([]gamification.LearnerBadge, 0, len(rows))
	for _, r := range rows {
		badges = append(badges, gamification.LearnerBadge{
			Badge:     gamification.Badge{ID: r.ID, Name: r.Name, Description: r.Description},
			GrantedAt: r.GrantedAt,
		})
	}
	return badges, nil
}
