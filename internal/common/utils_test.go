package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPassphrase(t *testing.T) {
	a, err := NewPassphrase(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	_, err = hex.DecodeString(a)
	require.NoError(t, err)

	b, err := NewPassphrase(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	empty, err := NewPassphrase(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGenerateRandByteArray(t *testing.T) {
	assert.Len(t, GenerateRandByteArray(12), 12)
	assert.NotEqual(t, GenerateRandByteArray(32), GenerateRandByteArray(32))
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0}, buf)

	WipeByteArray(nil)
}
