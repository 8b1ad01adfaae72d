package service

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAESKey() string {
	return hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestAESEncryptionService_RoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey())
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("0690000031")
	require.NoError(t, err)
	assert.NotEqual(t, "0690000031", ciphertext)

	plaintext, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "0690000031", plaintext)
}

func TestAESEncryptionService_NonceMakesCiphertextUnique(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey())
	require.NoError(t, err)

	c1, err := svc.Encrypt("0690000031")
	require.NoError(t, err)
	c2, err := svc.Encrypt("0690000031")
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

func TestAESEncryptionService_InvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("not-hex")
	assert.Error(t, err)

	_, err = NewAESEncryptionService("abcd") // too short
	assert.Error(t, err)
}

func TestAESEncryptionService_DecryptRejectsGarbage(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey())
	require.NoError(t, err)

	_, err = svc.Decrypt("not-hex")
	assert.Error(t, err)

	_, err = svc.Decrypt("abcd") // shorter than nonce
	assert.Error(t, err)

	// Tampered ciphertext fails GCM authentication.
	ciphertext, err := svc.Encrypt("0690000031")
	require.NoError(t, err)
	raw, _ := hex.DecodeString(ciphertext)
	raw[len(raw)-1] ^= 0xFF
	_, err = svc.Decrypt(hex.EncodeToString(raw))
	assert.Error(t, err)
}
