package game_management

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	codeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateGameCode returns a random 6-character uppercase alphanumeric code.
func GenerateGameCode() (string, error) {
	code := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// NormalizeGameCode canonicalizes user input for lookup: trimmed, uppercase,
// exactly 6 characters. Returns "" for anything else.
func NormalizeGameCode(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) != codeLength {
		return ""
	}
	return normalized
}
