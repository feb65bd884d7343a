package library

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// saltLen is the raw salt length in bytes (160 bits of entropy).
const saltLen = 20

// GenerateCredential derives a fresh salted credential for plaintext. The
// salt is random per account and never derived from the username. Both
// return values are fixed-width uppercase hex: 40 chars of salt, 64 chars
// of SHA-256 digest over salt followed by plaintext.
func GenerateCredential(plaintext string) (hash, salt string, err error) {
	raw := make([]byte, saltLen)
	if _, err := rand.Read(raw); err != nil {
		// No usable entropy source is a fatal configuration problem.
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt = strings.ToUpper(hex.EncodeToString(raw))
	return hashWithSalt(plaintext, salt), salt, nil
}

// VerifyCredential recomputes the salted digest and compares it against the
// stored hash in constant time.
func VerifyCredential(plaintext, storedHash, storedSalt string) bool {
	computed := hashWithSalt(plaintext, storedSalt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToUpper(storedHash))) == 1
}

func hashWithSalt(plaintext, salt string) string {
	d := sha256.New()
	d.Write([]byte(salt))
	d.Write([]byte(plaintext))
	return strings.ToUpper(hex.EncodeToString(d.Sum(nil)))
}
