package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	tokenLength = 32 // 32 bytes = 256 bits
	hashCost    = bcrypt.DefaultCost
)

// GenerateAgentToken generates a random agent token
func GenerateAgentToken() (string, error) {
	bytes := make([]byte, tokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// HashToken hashes a token for storage in the configuration
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}

// IsTokenHash reports whether s looks like a bcrypt hash
func IsTokenHash(s string) bool {
	if !strings.HasPrefix(s, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// VerifyToken checks a presented token against any of the stored hashes
func VerifyToken(token string, storedHashes []string) bool {
	if token == "" {
		return false
	}
	for _, hash := range storedHashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil {
			return true
		}
	}
	return false
}
