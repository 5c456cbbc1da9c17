// Package refresh holds the refresh token registry: the single record per
// subject that decides whether a presented refresh token is still current.
package refresh

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrTokenRevoked means the subject has no live record: never signed in, invalidated or expired.
	ErrTokenRevoked = errors.New("refresh token revoked")
	// ErrTokenMismatch means a record exists but holds a different token, usually because it was rotated.
	ErrTokenMismatch = errors.New("refresh token superseded")
)

// Registry keeps at most one live refresh token per subject. Implementations
// serialise read-modify-write per subject so Rotate is an atomic compare-and-swap.
type Registry interface {
	// Insert records token as the only live refresh token for subjectID. Last writer wins.
	Insert(ctx context.Context, subjectID, token string, expiresAt time.Time) error
	// Validate returns nil only if token is the current token for subjectID.
	Validate(ctx context.Context, subjectID, token string) error
	// Rotate replaces presented with next, failing like Validate if presented is not current.
	Rotate(ctx context.Context, subjectID, presented, next string, expiresAt time.Time) error
	// Invalidate clears the record for subjectID. Clearing a missing record is not an error.
	Invalidate(ctx context.Context, subjectID string) error
}

// Sweeper is implemented by registries that need expired records removed periodically
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Fingerprint is the form a refresh token is stored in
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func fingerprintsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
