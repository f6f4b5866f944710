// Package cryptox seals member-authored text (ballot questions, candidate
// titles) with AES-GCM and exposes the one property the engine needs from a
// sealed value: the length of the plaintext it decodes to.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

var ErrMalformedText = errors.New("malformed encrypted text")

// EncryptedText is an AEAD-sealed string. The auth tag is stored apart from
// the ciphertext, so len(Ciphertext) equals the plaintext length in bytes.
type EncryptedText struct {
	Ciphertext []byte `json:"c"`
	Nonce      []byte `json:"n"`
	AuthTag    []byte `json:"t"`
}

// Blank reports whether no ciphertext is present.
func (e EncryptedText) Blank() bool {
	return len(e.Ciphertext) == 0
}

// TextCodec reports the decoded length of a sealed value without opening it.
type TextCodec interface {
	DecodedLength(EncryptedText) (int, error)
}

// Codec is the AES-GCM TextCodec.
type Codec struct{}

// DecodedLength validates the envelope shape and returns the plaintext length.
func (Codec) DecodedLength(e EncryptedText) (int, error) {
	if len(e.Nonce) != nonceSize || len(e.AuthTag) != tagSize {
		return 0, ErrMalformedText
	}
	return len(e.Ciphertext), nil
}

// DeriveMasterKey stretches a passphrase into an AES-256 key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under key with a fresh random nonce.
func Seal(plaintext string, key []byte) (EncryptedText, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return EncryptedText{}, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	split := len(sealed) - aesgcm.Overhead()
	return EncryptedText{
		Ciphertext: sealed[:split],
		Nonce:      nonce,
		AuthTag:    sealed[split:],
	}, nil
}

// Open decrypts e under key.
func Open(e EncryptedText, key []byte) (string, error) {
	if _, err := (Codec{}).DecodedLength(e); err != nil {
		return "", err
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(e.Ciphertext)+len(e.AuthTag))
	sealed = append(sealed, e.Ciphertext...)
	sealed = append(sealed, e.AuthTag...)

	plaintext, err := aesgcm.Open(nil, e.Nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plaintext), nil
}
