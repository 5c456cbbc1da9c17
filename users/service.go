package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/pkg/errors"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already in use")
	ErrInvalidUser    = errors.New("invalid user")
)

// Registration is the input for creating a new user
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Service handles registration and lookups on top of a UserRepo
type Service struct {
	repo             UserRepo
	enforceStrength  bool
	nowFunc          func() time.Time
	newID            func() string
	hashPasswordFunc func(string) (string, error)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithPasswordStrength toggles the password strength policy applied on registration
func WithPasswordStrength(enforce bool) ServiceOption {
	return func(s *Service) {
		s.enforceStrength = enforce
	}
}

// WithNowFunc sets the clock used for CreatedAt (primarily for testing)
func WithNowFunc(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = nowFunc
	}
}

// WithIDGenerator overrides the user id generator
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

func NewService(repo UserRepo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[users.NewService] user repo is required")
	}
	s := &Service{
		repo:             repo,
		enforceStrength:  true,
		nowFunc:          time.Now,
		newID:            uuid.NewString,
		hashPasswordFunc: HashPassword,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Create registers a new user after checking that neither the username nor the email is taken.
func (s *Service) Create(ctx context.Context, reg Registration) (*User, error) {
	username := strings.TrimSpace(reg.Username)
	email := strings.TrimSpace(reg.Email)

	if username == "" {
		return nil, errors.Wrap(ErrInvalidUser, "username is required")
	}
	if reg.Password == "" {
		return nil, errors.Wrap(ErrInvalidUser, "password is required")
	}
	if s.enforceStrength {
		if err := ValidatePasswordStrength(reg.Password); err != nil {
			return nil, errors.Wrap(ErrInvalidUser, err.Error())
		}
	}

	if err := s.ensureUserDoesNotExist(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := s.hashPasswordFunc(reg.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[users.Create] hash password")
	}

	user := &User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.nowFunc().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			// Lost a race with a concurrent registration, report which field clashed.
			if existsErr := s.ensureUserDoesNotExist(ctx, username, email); existsErr != nil {
				return nil, existsErr
			}
		}
		return nil, errors.Wrap(err, "[users.Create] create user")
	}
	return user, nil
}

func (s *Service) ensureUserDoesNotExist(ctx context.Context, username, email string) error {
	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameExists
	case !apperrors.Is(err, apperrors.ErrNotFound):
		return errors.Wrap(err, "[users.ensureUserDoesNotExist] find by username")
	}

	if email == "" {
		return nil
	}
	_, err = s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailExists
	case !apperrors.Is(err, apperrors.ErrNotFound):
		return errors.Wrap(err, "[users.ensureUserDoesNotExist] find by email")
	}
	return nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	return notFound(s.repo.GetByID(ctx, id))
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	return notFound(s.repo.FindByUsername(ctx, username))
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return notFound(s.repo.FindByEmail(ctx, email))
}

// FindByUsernameOrEmail fails with ErrUserNotFound when neither value is supplied.
func (s *Service) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	if username == "" && email == "" {
		return nil, ErrUserNotFound
	}
	return notFound(s.repo.FindByUsernameOrEmail(ctx, username, email))
}

func notFound(user *User, err error) (*User, error) {
	if err == nil {
		return user, nil
	}
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return nil, err
}
