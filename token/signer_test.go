package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-auth/token"
	"github.com/stretchr/testify/require"
)

func TestKeyPairSigner_RSA(t *testing.T) {
	kp, err := token.GenerateRSAKeyPair("rsa-1", 2048)
	require.NoError(t, err)

	codec, err := token.NewCodec(token.NewKeyPairSigner(kp))
	require.NoError(t, err)

	raw, _, err := codec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Hour)
	require.NoError(t, err)

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)

	// An HMAC codec must not accept an RS256 token
	hmacCodec, err := token.NewCodec(token.NewHMACSigner(secretStr))
	require.NoError(t, err)
	_, err = hmacCodec.Decode(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestKeyPairSigner_UnknownKeyID(t *testing.T) {
	kp, err := token.GenerateECDSAKeyPair("ec-1")
	require.NoError(t, err)

	signingCodec, err := token.NewCodec(token.NewKeyPairSigner(kp))
	require.NoError(t, err)
	raw, _, err := signingCodec.Issue(token.NewClaims("user-1", "alice", token.KindAccess), time.Hour)
	require.NoError(t, err)

	renamed := *kp
	renamed.KeyID = "ec-2"
	verifyingCodec, err := token.NewCodec(token.NewKeyPairSigner(&renamed))
	require.NoError(t, err)

	_, err = verifyingCodec.Decode(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestKeyPairSigner_JWKS(t *testing.T) {
	rsaKP, err := token.GenerateRSAKeyPair("rsa-1", 2048)
	require.NoError(t, err)
	jwks, err := token.NewKeyPairSigner(rsaKP).GetJWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "rsa-1", jwks.Keys[0].Kid)
	require.Equal(t, "AQAB", jwks.Keys[0].E)

	ecKP, err := token.GenerateECDSAKeyPair("ec-1")
	require.NoError(t, err)
	jwks, err = token.NewKeyPairSigner(ecKP).GetJWKS()
	require.NoError(t, err)
	require.Equal(t, "EC", jwks.Keys[0].Kty)
	require.Equal(t, "P-256", jwks.Keys[0].Crv)
	require.Len(t, jwks.Keys[0].X, 43)
	require.Len(t, jwks.Keys[0].Y, 43)
}

func TestNewSignerFromSecret(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := token.NewSignerFromSecret("  ", "kid")
		require.Error(t, err)
	})

	t.Run("short hmac secret", func(t *testing.T) {
		_, err := token.NewSignerFromSecret("1234", "kid")
		require.Error(t, err)
	})

	t.Run("hmac", func(t *testing.T) {
		signer, err := token.NewSignerFromSecret(secretStr, "kid")
		require.NoError(t, err)
		require.Equal(t, "HS256", signer.GetSigningMethod().Alg())
	})

	t.Run("rsa pem", func(t *testing.T) {
		kp, err := token.GenerateRSAKeyPair("ignored", 2048)
		require.NoError(t, err)
		pemData, err := kp.ExportPrivateKeyPEM()
		require.NoError(t, err)

		signer, err := token.NewSignerFromSecret(pemData, "kid-rsa")
		require.NoError(t, err)
		require.Equal(t, "RS256", signer.GetSigningMethod().Alg())

		provider, ok := signer.(token.JWKSProvider)
		require.True(t, ok)
		jwks, err := provider.GetJWKS()
		require.NoError(t, err)
		require.Equal(t, "kid-rsa", jwks.Keys[0].Kid)
	})

	t.Run("ec pem", func(t *testing.T) {
		kp, err := token.GenerateECDSAKeyPair("ignored")
		require.NoError(t, err)
		pemData, err := kp.ExportPrivateKeyPEM()
		require.NoError(t, err)

		signer, err := token.NewSignerFromSecret(pemData, "kid-ec")
		require.NoError(t, err)
		require.Equal(t, "ES256", signer.GetSigningMethod().Alg())

		codec, err := token.NewCodec(signer)
		require.NoError(t, err)
		raw, _, err := codec.Issue(token.NewClaims("user-1", "alice", token.KindRefresh), time.Hour)
		require.NoError(t, err)
		_, err = codec.DecodeKind(raw, token.KindRefresh)
		require.NoError(t, err)
	})

	t.Run("bad pem", func(t *testing.T) {
		_, err := token.NewSignerFromSecret("-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----", "kid")
		require.Error(t, err)
	})
}

func TestGenerateHMACSecret(t *testing.T) {
	a, err := token.GenerateHMACSecret()
	require.NoError(t, err)
	b, err := token.GenerateHMACSecret()
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.NotEqual(t, a, b)
	require.False(t, strings.ContainsAny(a, "ghijklmnopqrstuvwxyz"))
}
