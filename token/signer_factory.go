package token

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const minHMACSecretLength = 32

// NewSignerFromSecret builds a key pair signer when secret holds a PEM encoded
// private key and an HMAC signer otherwise.
func NewSignerFromSecret(secret, keyID string) (Signer, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("[NewSignerFromSecret] signing secret is empty")
	}

	if strings.HasPrefix(trimmed, "-----BEGIN") {
		keyPair, err := KeyPairFromPEM(keyID, trimmed)
		if err != nil {
			return nil, errors.Wrap(err, "[NewSignerFromSecret] load key pair")
		}
		return NewKeyPairSigner(keyPair), nil
	}

	if len(secret) < minHMACSecretLength {
		return nil, errors.Errorf("[NewSignerFromSecret] HMAC secret must be at least %d bytes", minHMACSecretLength)
	}
	return NewHMACSigner(secret), nil
}

// GenerateHMACSecret returns a random 256 bit secret, hex encoded
func GenerateHMACSecret() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Wrap(err, "failed to generate HMAC secret")
	}
	return hex.EncodeToString(secret), nil
}
