package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	minCodeLength     = 6
	maxCodeLength     = 8
)

// generateShortCode produces a random alphanumeric code of uniformly
// random length between 6 and 8 characters. It makes no uniqueness
// guarantee on its own; the caller's retry loop and the unique index on
// short_code enforce that.
func generateShortCode() string {
	length := minCodeLength + randomInt(maxCodeLength-minCodeLength+1)

	code := make([]byte, length)
	for i := range code {
		code[i] = shortCodeAlphabet[randomInt(len(shortCodeAlphabet))]
	}

	return string(code)
}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("failed to generate random number: %v", err))
	}
	return int(v.Int64())
}
