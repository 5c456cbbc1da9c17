package users_test

import (
	"testing"

	"github.com/jrsteele09/go-token-auth/users"
	"github.com/stretchr/testify/require"
)

func TestVerifyPassword(t *testing.T) {
	hash, err := users.HashPassword("Password123")
	require.NoError(t, err)
	require.NotEqual(t, "Password123", hash)

	require.True(t, users.VerifyPassword(hash, "Password123"))
	require.False(t, users.VerifyPassword(hash, "password123"))
	require.False(t, users.VerifyPassword(hash, ""))
	require.False(t, users.VerifyPassword("", "Password123"))
	require.False(t, users.VerifyPassword("not-a-bcrypt-hash", "Password123"))

	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("Password123"))
	require.False(t, u.CheckPassword("nope"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		errMsg   string
	}{
		{name: "valid", password: "Password123"},
		{name: "too short", password: "Pa1", errMsg: "at least 8 characters"},
		{name: "no upper", password: "password123", errMsg: "uppercase"},
		{name: "no lower", password: "PASSWORD123", errMsg: "lowercase"},
		{name: "no number", password: "Passwords", errMsg: "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestHasEmail(t *testing.T) {
	require.True(t, (&users.User{Email: "a@b.c"}).HasEmail())
	require.False(t, (&users.User{Email: "  "}).HasEmail())
}
