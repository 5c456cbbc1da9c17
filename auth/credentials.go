package auth

import (
	"strings"

	"github.com/pkg/errors"
)

// Credentials is the sign-in input. Either Username or Email identifies the user.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Validate checks the shape of the credentials, not whether they are correct
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" && strings.TrimSpace(c.Email) == "" {
		return errors.New("either username or email must be provided")
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	return nil
}
