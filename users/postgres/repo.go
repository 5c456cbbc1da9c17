// Package postgres provides a PostgreSQL-backed users.UserRepo.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-token-auth/internal/database"
	apperrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/users"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

const selectUser = `SELECT id, username, email, password_hash, created_at FROM users`

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db database.DBTX
}

func NewUserRepo(db database.DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	email := sql.NullString{String: user.Email, Valid: user.Email != ""}
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Username, email, user.PasswordHash, user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Wrapf(apperrors.ErrConflict, "[UserRepo.Create] %s", pgErr.ConstraintName)
		}
		return errors.Wrap(err, "[UserRepo.Create] insert")
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Delete] delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Delete] rows affected")
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.queryOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.queryOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	if email == "" {
		return nil, apperrors.ErrNotFound
	}
	return r.queryOne(ctx, selectUser+` WHERE lower(email) = lower($1)`, email)
}

// FindByUsernameOrEmail prefers a username match over an email match.
func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*users.User, error) {
	switch {
	case username == "" && email == "":
		return nil, apperrors.ErrNotFound
	case email == "":
		return r.FindByUsername(ctx, username)
	case username == "":
		return r.FindByEmail(ctx, email)
	}
	return r.queryOne(ctx,
		selectUser+` WHERE username = $1 OR lower(email) = lower($2) ORDER BY (username = $1) DESC LIMIT 1`,
		username, email)
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*users.User, error) {
	var (
		user  users.User
		email sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "[UserRepo] query user")
	}
	user.Email = email.String
	return &user, nil
}
