package users

import "context"

// UserRepo is the lookup and persistence contract for user records.
// Lookups return internal/errors.ErrNotFound when no user matches and
// Create returns internal/errors.ErrConflict on a duplicate username or email.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByUsernameOrEmail matches on username first, then email. Empty values are ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
}
