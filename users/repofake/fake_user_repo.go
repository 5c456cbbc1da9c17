package fakeuserrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory user store. Usernames are case sensitive, emails are not.
type FakeUserRepo struct {
	users       map[string]*users.User
	usernameIds map[string]string // username to user id
	emailIds    map[string]string // lower cased email to user id
	lock        sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:       make(map[string]*users.User),
		usernameIds: make(map[string]string),
		emailIds:    make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.usernameIds[user.Username]; ok {
		return apperrors.Wrapf(apperrors.ErrConflict, "username %q", user.Username)
	}
	email := strings.ToLower(user.Email)
	if email != "" {
		if _, ok := ur.emailIds[email]; ok {
			return apperrors.Wrapf(apperrors.ErrConflict, "email %q", user.Email)
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.usernameIds[user.Username] = user.ID
	if email != "" {
		ur.emailIds[email] = user.ID
	}
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.usernameIds, user.Username)
	delete(ur.emailIds, strings.ToLower(user.Email))
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) FindByUsername(_ context.Context, username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernameIds[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok || email == "" {
		return nil, apperrors.ErrNotFound
	}
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*users.User, error) {
	if username != "" {
		user, err := ur.FindByUsername(ctx, username)
		if err == nil || email == "" {
			return user, err
		}
	}
	if email != "" {
		return ur.FindByEmail(ctx, email)
	}
	return nil, apperrors.ErrNotFound
}

// copyOf must be called with the lock held
func (ur *FakeUserRepo) copyOf(id string) (*users.User, error) {
	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u := *user
	return &u, nil
}
