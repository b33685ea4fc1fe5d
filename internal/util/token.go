package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	DefaultResetTokenLength = 48
	MinResetTokenLength     = 32
)

// GenerateToken returns a uniformly random alphanumeric string. Lengths below
// MinResetTokenLength are raised to it.
func GenerateToken(length int) (string, error) {
	if length < MinResetTokenLength {
		length = MinResetTokenLength
	}
	max := big.NewInt(int64(len(tokenAlphabet)))
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(tokenAlphabet[n.Int64()])
	}
	return builder.String(), nil
}

// HashToken is the form in which reset tokens are stored and looked up.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsTokenShaped rejects input that could never have come from GenerateToken.
func IsTokenShaped(token string) bool {
	if len(token) < MinResetTokenLength || len(token) > 256 {
		return false
	}
	for i := 0; i < len(token); i++ {
		if strings.IndexByte(tokenAlphabet, token[i]) < 0 {
			return false
		}
	}
	return true
}
