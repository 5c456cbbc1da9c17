package refresh

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/jrsteele09/go-token-auth/internal/database"
	"github.com/pkg/errors"
)

var (
	_ Registry = (*PostgresRegistry)(nil)
	_ Sweeper  = (*PostgresRegistry)(nil)
)

// PostgresRegistry keeps one row per subject in refresh_tokens. Rotate is a
// conditional UPDATE, so concurrent rotations of the same row serialise on the row lock.
type PostgresRegistry struct {
	db      database.DBTX
	nowFunc func() time.Time
}

// PostgresOption defines a function type to modify the PostgresRegistry instance.
type PostgresOption func(*PostgresRegistry)

// WithPostgresNowFunc sets the clock compared against expires_at
func WithPostgresNowFunc(nowFunc func() time.Time) PostgresOption {
	return func(p *PostgresRegistry) {
		p.nowFunc = nowFunc
	}
}

func NewPostgresRegistry(db database.DBTX, options ...PostgresOption) *PostgresRegistry {
	p := &PostgresRegistry{db: db, nowFunc: time.Now}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *PostgresRegistry) Insert(ctx context.Context, subjectID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.ExecContext(ctx, query, subjectID, Fingerprint(token), expiresAt, p.nowFunc()); err != nil {
		return errors.Wrap(err, "[PostgresRegistry.Insert] upsert")
	}
	return nil
}

func (p *PostgresRegistry) Validate(ctx context.Context, subjectID, token string) error {
	current, expiresAt, err := p.current(ctx, subjectID)
	if err != nil {
		return err
	}
	if !expiresAt.After(p.nowFunc()) {
		return ErrTokenRevoked
	}
	if !fingerprintsEqual(current, Fingerprint(token)) {
		return ErrTokenMismatch
	}
	return nil
}

// Rotate relies on READ COMMITTED or stricter isolation. A second UPDATE blocked on the
// row lock re-evaluates token_hash = $2 against the committed row, matches nothing and
// reports ErrTokenMismatch. Under REPEATABLE READ or SERIALIZABLE the loser fails with
// a serialization error instead, which callers also treat as a failed rotation.
func (p *PostgresRegistry) Rotate(ctx context.Context, subjectID, presented, next string, expiresAt time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET token_hash = $3, expires_at = $4, updated_at = $5
		WHERE user_id = $1 AND token_hash = $2 AND expires_at > $5
	`
	res, err := p.db.ExecContext(ctx, query, subjectID, Fingerprint(presented), Fingerprint(next), expiresAt, p.nowFunc())
	if err != nil {
		return errors.Wrap(err, "[PostgresRegistry.Rotate] update")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[PostgresRegistry.Rotate] rows affected")
	}
	if n == 1 {
		return nil
	}

	// Nothing swapped: report why
	if err := p.Validate(ctx, subjectID, presented); err != nil {
		return err
	}
	return ErrTokenMismatch
}

func (p *PostgresRegistry) Invalidate(ctx context.Context, subjectID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, subjectID); err != nil {
		return errors.Wrap(err, "[PostgresRegistry.Invalidate] delete")
	}
	return nil
}

func (p *PostgresRegistry) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, errors.Wrap(err, "[PostgresRegistry.Sweep] delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "[PostgresRegistry.Sweep] rows affected")
	}
	return int(n), nil
}

func (p *PostgresRegistry) current(ctx context.Context, subjectID string) (string, time.Time, error) {
	var (
		hash      string
		expiresAt time.Time
	)
	err := p.db.QueryRowContext(ctx, `SELECT token_hash, expires_at FROM refresh_tokens WHERE user_id = $1`, subjectID).
		Scan(&hash, &expiresAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrTokenRevoked
	}
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[PostgresRegistry] select")
	}
	return hash, expiresAt, nil
}
