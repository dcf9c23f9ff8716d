package game

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	MinCodeLength = 4
	MaxCodeLength = 10
)

// GenerateCode draws a random upper-case alphanumeric code.
func GenerateCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeCode upper-cases a user-entered code and checks its length.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return "", ErrInvalidCode
	}
	return code, nil
}
