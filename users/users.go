package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is the identity record owned by the user store. The token service only reads it.
type User struct {
	ID           string    `json:"id,omitempty"`         // Unique identifier for the user
	Username     string    `json:"username,omitempty"`   // Unique username
	Email        string    `json:"email,omitempty"`      // Optional unique email address
	PasswordHash string    `json:"-"`                    // Hashed version of the user's password - never serialize
	CreatedAt    time.Time `json:"created_at,omitempty"` // Date and time when the user registered
}

// HasEmail reports whether the user registered with an email address
func (u *User) HasEmail() bool {
	return strings.TrimSpace(u.Email) != ""
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// HashPassword produces the bcrypt hash stored against a user
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compares a supplied password with a stored bcrypt hash.
// A mismatch or a malformed hash yields false, never an error.
func VerifyPassword(storedHash, password string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}

// CheckPassword verifies a password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return VerifyPassword(u.PasswordHash, password)
}
