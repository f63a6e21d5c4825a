package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const resetTokenBytes = 32

// GenerateResetToken returns a new password reset token as
// (plaintext, digest) pair. The plaintext is handed to the user via the
// reset link and never persisted; only the digest is stored.
func GenerateResetToken() (plaintext string, hash string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

// HashToken computes the stored form of a reset token. Deterministic,
// used symmetrically at issuance and verification.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func GetExpirationTime(validityPeriod time.Duration) time.Time {
	return time.Now().Add(validityPeriod)
}

func ReachedExpirationTime(t time.Time) bool {
	return time.Now().After(t)
}
