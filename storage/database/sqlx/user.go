package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lusembo/maendeleo/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    time.Time      `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
	usr.SetActive(r.IsActive)
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make(pq.StringArray, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	var rows []userRow
	err := sqlx.SelectContext(ctx, ext(ctx, repo.db), &rows,
		`SELECT id, username, email FROM users
		 WHERE (username = $1 OR (email <> '' AND email = $2)) AND NOT (id = ANY($3))`,
		username, email, exclIDs,
	)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	_, err := ext(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Active(), pq.StringArray(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	return usr, err
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		query string
		args  []interface{}
	)
	switch {
	case filter.ID != "":
		query = `SELECT * FROM users WHERE id = $1`
		args = []interface{}{filter.ID}
	case len(filter.UsernameOrEmail) > 0:
		query = `SELECT * FROM users WHERE username = ANY($1) OR (email <> '' AND email = ANY($1))`
		args = []interface{}{pq.StringArray(filter.UsernameOrEmail)}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := sqlx.GetContext(ctx, ext(ctx, repo.db), &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	err := sqlx.SelectContext(ctx, ext(ctx, repo.db), &rows, `SELECT * FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	now := time.Now().UTC()
	usr.UpdatedAt = now
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	_, err := ext(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (username) DO UPDATE
		 SET name          = EXCLUDED.name,
		     email         = EXCLUDED.email,
		     is_active     = EXCLUDED.is_active,
		     roles         = EXCLUDED.roles,
		     password_hash = EXCLUDED.password_hash,
		     updated_at    = EXCLUDED.updated_at`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Active(), pq.StringArray(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, err
	}
	return repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{usr.Username}})
}

func (repo *userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	usr.LastLogin = time.Now().UTC()
	_, err := ext(ctx, repo.db).ExecContext(ctx,
		`UPDATE users SET last_login = $2 WHERE id = $1`, usr.ID, usr.LastLogin)
	return usr, err
}
