// Package auth signs users in and manages the lifecycle of their access and
// refresh tokens.
//
// Every operation runs under its own timeout. A registry write that commits
// before the caller's context is cancelled is not rolled back: rotation and
// invalidation are at-most-once durable effects, and a caller that gave up
// waiting may find its refresh token already replaced.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/refresh"
	"github.com/jrsteele09/go-token-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 7 * 24 * time.Hour
	DefaultOperationTimeout = 5 * time.Second

	TokenTypeBearer = "Bearer"
)

// Operation and outcome labels reported to the Recorder
const (
	OpSignIn     = "sign_in"
	OpRefresh    = "refresh"
	OpInvalidate = "invalidate"

	OutcomeSuccess             = "success"
	OutcomeInvalidCredentials  = "invalid_credentials"
	OutcomeInvalidRefreshToken = "invalid_refresh_token"
	OutcomeRefreshReuse        = "refresh_reuse"
	OutcomeInvalidAccessToken  = "invalid_access_token"
	OutcomeUnavailable         = "unavailable"
)

// UserFinder is the part of the user store the service reads from
type UserFinder interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*users.User, error)
	FindByUsername(ctx context.Context, username string) (*users.User, error)
}

// Recorder receives one call per finished operation
type Recorder interface {
	RecordAuth(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string) {}

// TokenPair is returned by SignIn and RefreshAccessToken
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	TokenType             string    `json:"token_type"`
	ExpiresIn             int64     `json:"expires_in"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// Service is safe for concurrent use. The registry is the only shared mutable state.
type Service struct {
	users            UserFinder
	codec            *token.Codec
	registry         refresh.Registry
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
	operationTimeout time.Duration
	logger           zerolog.Logger
	recorder         Recorder
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

func WithTokenTTLs(accessTokenTTL, refreshTokenTTL time.Duration) ServiceOption {
	return func(s *Service) {
		s.accessTokenTTL = accessTokenTTL
		s.refreshTokenTTL = refreshTokenTTL
	}
}

// WithOperationTimeout bounds each SignIn, RefreshAccessToken and InvalidateToken call
func WithOperationTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.operationTimeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithRecorder(recorder Recorder) ServiceOption {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func NewService(userFinder UserFinder, codec *token.Codec, registry refresh.Registry, options ...ServiceOption) (*Service, error) {
	if userFinder == nil {
		return nil, errors.New("[auth.NewService] user finder is required")
	}
	if codec == nil {
		return nil, errors.New("[auth.NewService] token codec is required")
	}
	if registry == nil {
		return nil, errors.New("[auth.NewService] refresh token registry is required")
	}

	s := &Service{
		users:            userFinder,
		codec:            codec,
		registry:         registry,
		accessTokenTTL:   DefaultAccessTokenTTL,
		refreshTokenTTL:  DefaultRefreshTokenTTL,
		operationTimeout: DefaultOperationTimeout,
		logger:           zerolog.Nop(),
		recorder:         nopRecorder{},
	}
	for _, option := range options {
		option(s)
	}

	if s.accessTokenTTL <= 0 || s.refreshTokenTTL <= 0 {
		return nil, errors.Errorf("[auth.NewService] token TTLs must be positive, got access=%s refresh=%s", s.accessTokenTTL, s.refreshTokenTTL)
	}
	if s.operationTimeout <= 0 {
		return nil, errors.Errorf("[auth.NewService] operation timeout must be positive, got %s", s.operationTimeout)
	}
	return s, nil
}

// SignIn verifies the credentials and starts a new session for the user,
// replacing any refresh token previously issued to them.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (*TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if err := creds.Validate(); err != nil {
		return nil, s.fail(OpSignIn, OutcomeInvalidCredentials, ErrInvalidCredentials)
	}

	user, err := s.findUser(ctx, creds)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			// Keep the response time of an unknown user in line with a wrong password.
			users.VerifyPassword(dummyHash(), creds.Password)
			return nil, s.fail(OpSignIn, OutcomeInvalidCredentials, ErrInvalidCredentials)
		}
		s.logger.Error().Err(err).Msg("sign in: user lookup failed")
		return nil, s.fail(OpSignIn, OutcomeUnavailable, ErrUnavailable)
	}

	if !user.CheckPassword(creds.Password) {
		return nil, s.fail(OpSignIn, OutcomeInvalidCredentials, ErrInvalidCredentials)
	}

	pair, err := s.issuePair(user.ID, user.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", user.ID).Msg("sign in: issue tokens")
		return nil, s.fail(OpSignIn, OutcomeUnavailable, ErrUnavailable)
	}

	if err := s.registry.Insert(ctx, user.ID, pair.RefreshToken, pair.RefreshTokenExpiresAt); err != nil {
		s.logger.Error().Err(err).Str("subject", user.ID).Msg("sign in: record refresh token")
		return nil, s.fail(OpSignIn, OutcomeUnavailable, ErrUnavailable)
	}

	s.logger.Debug().Str("subject", user.ID).Msg("signed in")
	s.recorder.RecordAuth(OpSignIn, OutcomeSuccess)
	return pair, nil
}

// RefreshAccessToken exchanges a current refresh token for a new pair. The
// presented token is dead once this returns successfully. Of several
// concurrent calls with the same token at most one succeeds.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	claims, err := s.codec.DecodeKind(refreshToken, token.KindRefresh)
	if err != nil {
		s.logger.Debug().Err(err).Msg("refresh: decode")
		return nil, s.fail(OpRefresh, OutcomeInvalidRefreshToken, ErrInvalidRefreshToken)
	}
	subjectID := claims.SubjectID()

	pair, err := s.issuePair(subjectID, claims.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", subjectID).Msg("refresh: issue tokens")
		return nil, s.fail(OpRefresh, OutcomeUnavailable, ErrInvalidRefreshToken)
	}

	err = s.registry.Rotate(ctx, subjectID, refreshToken, pair.RefreshToken, pair.RefreshTokenExpiresAt)
	switch {
	case err == nil:
	case errors.Is(err, refresh.ErrTokenMismatch):
		s.logger.Warn().Str("subject", subjectID).Str("jti", claims.ID).Msg("refresh: superseded token presented")
		return nil, s.fail(OpRefresh, OutcomeRefreshReuse, ErrInvalidRefreshToken)
	case errors.Is(err, refresh.ErrTokenRevoked):
		s.logger.Debug().Str("subject", subjectID).Msg("refresh: no live session")
		return nil, s.fail(OpRefresh, OutcomeInvalidRefreshToken, ErrInvalidRefreshToken)
	default:
		s.logger.Error().Err(err).Str("subject", subjectID).Msg("refresh: rotate")
		return nil, s.fail(OpRefresh, OutcomeUnavailable, ErrInvalidRefreshToken)
	}

	s.recorder.RecordAuth(OpRefresh, OutcomeSuccess)
	return pair, nil
}

// InvalidateToken ends the session of the access token's subject. Refresh
// tokens stop working immediately; the access token itself stays valid until
// it expires. Invalidating a subject without a live session succeeds.
func (s *Service) InvalidateToken(ctx context.Context, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	claims, err := s.codec.DecodeKind(accessToken, token.KindAccess)
	if err != nil {
		s.logger.Debug().Err(err).Msg("invalidate: decode")
		return s.fail(OpInvalidate, OutcomeInvalidAccessToken, ErrInvalidAccessToken)
	}

	if err := s.registry.Invalidate(ctx, claims.SubjectID()); err != nil {
		s.logger.Error().Err(err).Str("subject", claims.SubjectID()).Msg("invalidate: clear registry")
		return s.fail(OpInvalidate, OutcomeUnavailable, ErrInvalidAccessToken)
	}

	s.logger.Debug().Str("subject", claims.SubjectID()).Msg("session invalidated")
	s.recorder.RecordAuth(OpInvalidate, OutcomeSuccess)
	return nil
}

// Authenticate decodes a bearer access token. It does not consult the registry.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*token.Claims, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrInvalidAccessToken
	}
	claims, err := s.codec.DecodeKind(accessToken, token.KindAccess)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// ValidateUser checks a username and password without starting a session.
// Every failure, including a store error, is ErrInvalidCredentials.
func (s *Service) ValidateUser(ctx context.Context, username, password string) (*users.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, users.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("validate user: lookup failed")
		}
		users.VerifyPassword(dummyHash(), password)
		return nil, ErrInvalidCredentials
	}
	if !users.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) findUser(ctx context.Context, creds Credentials) (*users.User, error) {
	username := strings.TrimSpace(creds.Username)
	email := strings.TrimSpace(creds.Email)
	if email == "" {
		return s.users.FindByUsername(ctx, username)
	}
	return s.users.FindByUsernameOrEmail(ctx, username, email)
}

func (s *Service) issuePair(subjectID, username string) (*TokenPair, error) {
	accessToken, accessClaims, err := s.codec.Issue(token.NewClaims(subjectID, username, token.KindAccess), s.accessTokenTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[auth.issuePair] access token")
	}
	refreshToken, refreshClaims, err := s.codec.Issue(token.NewClaims(subjectID, username, token.KindRefresh), s.refreshTokenTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[auth.issuePair] refresh token")
	}
	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		TokenType:             TokenTypeBearer,
		ExpiresIn:             int64(s.accessTokenTTL.Seconds()),
		AccessTokenExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshTokenExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

func (s *Service) fail(operation, outcome string, err error) error {
	s.recorder.RecordAuth(operation, outcome)
	return err
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := users.HashPassword("not-a-real-password")
	if err != nil {
		return ""
	}
	return hash
})
