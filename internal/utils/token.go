package utils // package utils provides small crypto helpers shared by services

import (
	"crypto/rand"
	"encoding/base64"
)

// VerificationTokenBytes is the entropy of an emailed token (256 bits).
const VerificationTokenBytes = 32

// RandomToken returns n bytes from crypto/rand encoded as unpadded
// base64url, safe to place in a query string.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
