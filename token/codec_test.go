package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/stretchr/testify/require"
)

const (
	secretStr = "0123456789abcdef0123456789abcdef"
	issuer    = "com.testissuer"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec(t *testing.T, options ...token.CodecOption) (*token.Codec, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	options = append([]token.CodecOption{token.WithNowFunc(clock.Now), token.WithIssuer(issuer)}, options...)
	codec, err := token.NewCodec(token.NewHMACSigner(secretStr), options...)
	require.NoError(t, err)
	return codec, clock
}

func TestNewCodec_RequiresSigner(t *testing.T) {
	_, err := token.NewCodec(nil)
	require.Error(t, err)
}

func TestIssueDecode(t *testing.T) {
	codec, clock := newTestCodec(t)

	raw, issued, err := codec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEmpty(t, issued.ID)
	require.Equal(t, clock.now.Add(15*time.Minute).Unix(), issued.ExpiresAt.Unix())

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.SubjectID())
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, token.KindAccess, claims.Kind)
	require.Equal(t, issuer, claims.Issuer)
	require.Equal(t, issued.ID, claims.ID)
	require.Equal(t, clock.now.Unix(), claims.IssuedAt.Unix())
}

func TestIssue_SameClaimsDifferentTokens(t *testing.T) {
	codec, _ := newTestCodec(t)
	claims := token.NewClaims("user-1", "alice", token.KindRefresh)

	first, _, err := codec.Issue(claims, time.Hour)
	require.NoError(t, err)
	second, _, err := codec.Issue(claims, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	c1, err := codec.Decode(first)
	require.NoError(t, err)
	c2, err := codec.Decode(second)
	require.NoError(t, err)
	require.Equal(t, c1.Subject, c2.Subject)
	require.Equal(t, c1.ExpiresAt, c2.ExpiresAt)
}

func TestIssue_RejectsBadInput(t *testing.T) {
	codec, _ := newTestCodec(t)

	_, _, err := codec.Issue(token.NewClaims("", "alice", token.KindAccess), time.Minute)
	require.Error(t, err)

	_, _, err = codec.Issue(token.NewClaims("user-1", "alice", token.Kind("id")), time.Minute)
	require.Error(t, err)

	_, _, err = codec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), 0)
	require.Error(t, err)
}

func TestDecode_Expired(t *testing.T) {
	codec, clock := newTestCodec(t)

	raw, _, err := codec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestDecode_Leeway(t *testing.T) {
	codec, clock := newTestCodec(t, token.WithLeeway(time.Minute))

	raw, _, err := codec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Minute)
	require.NoError(t, err)

	clock.Advance(90 * time.Second)
	_, err = codec.Decode(raw)
	require.NoError(t, err)
}

func TestDecode_Tampered(t *testing.T) {
	codec, _ := newTestCodec(t)

	alice, _, err := codec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Hour)
	require.NoError(t, err)
	mallory, _, err := codec.Issue(token.NewClaims("user-2", "mallory", token.KindAccess), time.Hour)
	require.NoError(t, err)

	a := strings.Split(alice, ".")
	m := strings.Split(mallory, ".")
	spliced := strings.Join([]string{a[0], a[1], m[2]}, ".")

	_, err = codec.Decode(spliced)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestDecode_Garbage(t *testing.T) {
	codec, _ := newTestCodec(t)

	for _, raw := range []string{"", "abc", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		_, err := codec.Decode(raw)
		require.ErrorIs(t, err, token.ErrInvalidToken, raw)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	codec, _ := newTestCodec(t)
	other, err := token.NewCodec(token.NewHMACSigner("another-secret-another-secret-xx"), token.WithIssuer(issuer))
	require.NoError(t, err)

	raw, _, err := other.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestDecode_WrongIssuer(t *testing.T) {
	codec, _ := newTestCodec(t)
	other, err := token.NewCodec(token.NewHMACSigner(secretStr), token.WithIssuer("someone-else"))
	require.NoError(t, err)

	raw, _, err := other.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestDecode_NoneAlgorithm(t *testing.T) {
	codec, clock := newTestCodec(t)

	claims := token.NewClaims("user-1", "alice", token.KindAccess)
	claims.ID = "jti"
	claims.Issuer = issuer
	claims.IssuedAt = jwt.NewNumericDate(clock.now)
	claims.ExpiresAt = jwt.NewNumericDate(clock.now.Add(time.Hour))
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, &claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestDecode_MissingClaims(t *testing.T) {
	codec, clock := newTestCodec(t)
	signer := token.NewHMACSigner(secretStr)

	base := func() token.Claims {
		c := token.NewClaims("user-1", "alice", token.KindAccess)
		c.ID = "jti"
		c.Issuer = issuer
		c.IssuedAt = jwt.NewNumericDate(clock.now)
		c.ExpiresAt = jwt.NewNumericDate(clock.now.Add(time.Hour))
		return c
	}

	tests := map[string]func(c *token.Claims){
		"no subject": func(c *token.Claims) { c.Subject = "" },
		"no kind":    func(c *token.Claims) { c.Kind = "" },
		"no id":      func(c *token.Claims) { c.ID = "" },
		"no expiry":  func(c *token.Claims) { c.ExpiresAt = nil },
		"future iat": func(c *token.Claims) { c.IssuedAt = jwt.NewNumericDate(clock.now.Add(time.Hour)) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			raw, err := signer.Sign(&c)
			require.NoError(t, err)
			_, err = codec.Decode(raw)
			require.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}
}

func TestDecodeKind(t *testing.T) {
	codec, _ := newTestCodec(t)

	access, _, err := codec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Hour)
	require.NoError(t, err)

	_, err = codec.DecodeKind(access, token.KindAccess)
	require.NoError(t, err)

	_, err = codec.DecodeKind(access, token.KindRefresh)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}
