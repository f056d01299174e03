package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLength is the number of random bytes generated per user at sign-up
	SaltLength = 32

	hashIterations = 4096
	hashKeyLength  = 32
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// HashPassword derives a lowercase hex digest from the password and salt
// using PBKDF2-SHA256. The same inputs always produce the same output, so
// verification is a recompute-and-compare.
func HashPassword(password string, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword recomputes the digest with the stored salt and compares it
// against the stored hash in constant time.
func VerifyPassword(password string, salt []byte, expectedHash string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expectedHash)) == 1
}

// GenerateSalt returns SaltLength bytes from a cryptographically secure
// random source. Salts are generated once per user and stored alongside the
// hash, never regenerated at verification time.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("error generating salt: %w", err)
	}
	return salt, nil
}

// ValidateEmail checks the structural validity of an email address.
// Emails are matched case-sensitively as stored.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the password policy: at least 8 characters,
// one uppercase ASCII letter, one digit, and one character that is neither
// letter nor digit. All four conditions must hold simultaneously.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}
