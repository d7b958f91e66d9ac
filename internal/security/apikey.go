package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// APIKeyPrefix marks every generated secret
	APIKeyPrefix = "sk-"

	apiKeyEntropyBytes = 24

	maskHead = 7
	maskTail = 4
	maskRune = "•"
)

// GenerateAPIKey creates a new secret: the prefix followed by base64url of 24 random bytes
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return APIKeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashKey returns the hex SHA-256 digest used to index a secret
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MaskKey hides the middle of a secret for display
func MaskKey(key string) string {
	n := utf8.RuneCountInString(key)
	if n <= maskHead+maskTail {
		return strings.Repeat(maskRune, n)
	}

	runes := []rune(key)
	return string(runes[:maskHead]) + strings.Repeat(maskRune, n-maskHead-maskTail) + string(runes[n-maskTail:])
}
