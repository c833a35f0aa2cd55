package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAESEncryptionService_RoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("acquirer-secret-key")
	require.NoError(t, err)
	assert.NotEqual(t, "acquirer-secret-key", ciphertext)

	plaintext, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "acquirer-secret-key", plaintext)
}

func TestAESEncryptionService_NonDeterministic(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	a, err := svc.Encrypt("same-input")
	require.NoError(t, err)
	b, err := svc.Encrypt("same-input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAESEncryptionService_TamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("secret")
	require.NoError(t, err)

	flip := "0"
	if strings.HasSuffix(ciphertext, "0") {
		flip = "1"
	}
	tampered := ciphertext[:len(ciphertext)-1] + flip
	_, err = svc.Decrypt(tampered)
	assert.Error(t, err)
}

func TestAESEncryptionService_InvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("deadbeef")
	assert.Error(t, err)

	_, err = NewAESEncryptionService("not hex at all")
	assert.Error(t, err)
}
