package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum required password length (NIST recommendation).
	MinPasswordLength = 12
	// MaxPasswordBytes is the bcrypt input limit; longer inputs would be
	// silently truncated.
	MaxPasswordBytes = 72

	// APITokenPrefix marks long-lived API tokens so they can be told apart
	// from access tokens without a signature check.
	APITokenPrefix = "lbr_"
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password exceeds maximum length of %d bytes", MaxPasswordBytes)
)

// HashPassword returns the bcrypt hash of password. A cost outside
// bcrypt's range falls back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	switch {
	case len(password) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(password) > MaxPasswordBytes:
		return "", ErrPasswordTooLong
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports ErrInvalidPassword when password does not match hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// GenerateAPIToken returns a new prefixed API token and the hash to store.
// Only the hash is persisted; the plaintext is shown to the user once.
func GenerateAPIToken() (plaintext string, hash string, err error) {
	random, err := randomHex(32)
	if err != nil {
		return "", "", err
	}
	plaintext = APITokenPrefix + random
	return plaintext, HashToken(plaintext), nil
}

// IsAPIToken reports whether token has the API token shape.
func IsAPIToken(token string) bool {
	return strings.HasPrefix(token, APITokenPrefix)
}

// HashToken returns the hex SHA-256 of an API token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// GenerateSigningSecret creates a random secret for signing access tokens
// when none is configured.
func GenerateSigningSecret() (string, error) {
	return randomHex(32)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
