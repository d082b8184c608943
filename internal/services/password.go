package services

import (
	"crypto/rand"
	"io"
	"math/big"
)

const (
	resetPasswordLength   = 8
	resetPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// generatePassword draws n symbols uniformly from resetPasswordAlphabet.
func generatePassword(r io.Reader, n int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	max := big.NewInt(int64(len(resetPasswordAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(r, max)
		if err != nil {
			return "", err
		}
		out[i] = resetPasswordAlphabet[idx.Int64()]
	}
	return string(out), nil
}
