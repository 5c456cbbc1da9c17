package config

import "time"

type TokenConfig interface {
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	// GetSigningSecret is either an HMAC secret or a PEM encoded RSA/EC private key
	GetSigningSecret() string
	GetSigningKeyID() string
	GetIssuer() string
	GetOperationTimeout() time.Duration
}

type Tokens struct {
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	SigningSecret    string        `env:"SIGNING_SECRET"`
	SigningKeyID     string        `env:"SIGNING_KEY_ID" envDefault:"default"`
	Issuer           string        `env:"TOKEN_ISSUER" envDefault:"go-token-auth"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"5s"`
}

var _ TokenConfig = Tokens{}

func (t Tokens) GetAccessTokenTTL() time.Duration {
	return t.AccessTokenTTL
}

func (t Tokens) GetRefreshTokenTTL() time.Duration {
	return t.RefreshTokenTTL
}

func (t Tokens) GetSigningSecret() string {
	return t.SigningSecret
}

func (t Tokens) GetSigningKeyID() string {
	return t.SigningKeyID
}

func (t Tokens) GetIssuer() string {
	return t.Issuer
}

func (t Tokens) GetOperationTimeout() time.Duration {
	return t.OperationTimeout
}
