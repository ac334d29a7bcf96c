package random

import (
	"crypto/rand"
	"math/big"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns n cryptographically random ASCII letters, e.g. for in-memory database names or CSP nonces.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	upper := big.NewInt(int64(len(allowedLetters)))
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, upper)
		if err != nil {
			return "", err //nolint:wrapcheck // crypto/rand errors are fatal anyway.
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}
