package common

import (
	"crypto/rand"
	"encoding/hex"
)

// NewPassphrase returns a random org passphrase of size bytes, hex encoded.
func NewPassphrase(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns n random bytes. It panics if the system
// random source fails.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes b. Passphrases and derived keys go through it once
// they are no longer needed.
func WipeByteArray(b []byte) {
	clear(b)
}
