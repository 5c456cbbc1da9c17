package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Kind distinguishes access tokens from refresh tokens
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims is the payload carried by every token the service issues.
// Subject (sub) holds the user id.
type Claims struct {
	Username string `json:"username,omitempty"`
	Kind     Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// NewClaims builds the identity part of a token. Times, id and issuer are set by Codec.Issue.
func NewClaims(subjectID, username string, kind Kind) Claims {
	return Claims{
		Username:         username,
		Kind:             kind,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subjectID},
	}
}

// SubjectID returns the user id the token was issued to
func (c *Claims) SubjectID() string {
	return c.Subject
}

// Validate is called by the jwt parser after the registered claims have been checked
func (c *Claims) Validate() error {
	if c.Subject == "" {
		return errors.New("token has no subject")
	}
	if !c.Kind.Valid() {
		return errors.Errorf("unknown token kind %q", c.Kind)
	}
	if c.ID == "" {
		return errors.New("token has no id")
	}
	return nil
}

var _ jwt.ClaimsValidator = (*Claims)(nil)
