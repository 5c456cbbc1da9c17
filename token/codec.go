package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidToken covers every decode failure: bad signature, malformed token, wrong issuer and expiry.
// Callers cannot tell an expired token from a forged one.
var ErrInvalidToken = errors.New("invalid token")

// Codec issues and decodes signed, time bounded tokens. It keeps no revocation state.
type Codec struct {
	signer  Signer
	issuer  string
	leeway  time.Duration
	nowFunc func() time.Time
	newID   func() string
}

// CodecOption defines a function type to modify the Codec instance.
type CodecOption func(*Codec)

// WithIssuer sets the iss claim written on issue and required on decode
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// WithLeeway allows for clock skew when validating exp and iat
func WithLeeway(leeway time.Duration) CodecOption {
	return func(c *Codec) {
		c.leeway = leeway
	}
}

// WithNowFunc sets the clock used for issuing and validating (primarily for testing)
func WithNowFunc(nowFunc func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = nowFunc
	}
}

func NewCodec(signer Signer, options ...CodecOption) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("[token.NewCodec] signer is required")
	}
	c := &Codec{
		signer:  signer,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Issue signs claims with iat = now, exp = now + ttl and a fresh jti.
// The returned claims are the ones embedded in the token.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, *Claims, error) {
	if claims.Subject == "" {
		return "", nil, errors.New("[Codec.Issue] subject is required")
	}
	if !claims.Kind.Valid() {
		return "", nil, errors.Errorf("[Codec.Issue] unknown token kind %q", claims.Kind)
	}
	if ttl <= 0 {
		return "", nil, errors.Errorf("[Codec.Issue] ttl must be positive, got %s", ttl)
	}

	now := c.nowFunc()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = c.newID()
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}

	raw, err := c.signer.Sign(&claims)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Codec.Issue]")
	}
	return raw, &claims, nil
}

// Decode verifies the signature and registered claims of raw and returns its claims.
func (c *Codec) Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errors.Wrap(ErrInvalidToken, "empty token")
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.nowFunc),
	}
	if c.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, c.signer.GetVerificationKey, parserOptions...)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeKind decodes raw and requires it to be a token of the given kind
func (c *Codec) DecodeKind(raw string, kind Kind) (*Claims, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, errors.Wrapf(ErrInvalidToken, "expected %s token, got %s", kind, claims.Kind)
	}
	return claims, nil
}
