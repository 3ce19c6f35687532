package approval

import (
	"crypto/rand"
	"fmt"
)

// TokenAlphabet is the symbol set of public approval tokens.
const TokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TokenLength is the number of symbols in a public token.
const TokenLength = 48

// Bytes at or above this bound are discarded so every symbol is equally likely.
const rejectAbove = 256 - 256%len(TokenAlphabet)

// NewToken returns a random public token drawn from crypto/rand.
func NewToken() (string, error) {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength+TokenLength/4)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, TokenAlphabet[int(b)%len(TokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}
