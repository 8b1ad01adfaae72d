package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := NewHMACSignatureService()

	payload := `{"reference":"TX-abc","status":"SUCCESS"}`
	sig := svc.Sign("secret-key", payload)

	assert.NotEmpty(t, sig)
	assert.Len(t, sig, 64) // hex-encoded SHA-256
	assert.True(t, svc.Verify("secret-key", payload, sig))
}

func TestHMACSignatureService_VerifyRejectsTampering(t *testing.T) {
	svc := NewHMACSignatureService()

	payload := `{"amount":"100"}`
	sig := svc.Sign("secret-key", payload)

	assert.False(t, svc.Verify("secret-key", `{"amount":"999"}`, sig))
	assert.False(t, svc.Verify("other-key", payload, sig))
	assert.False(t, svc.Verify("secret-key", payload, "deadbeef"))
	assert.False(t, svc.Verify("secret-key", payload, ""))
}

func TestHMACSignatureService_Deterministic(t *testing.T) {
	svc := NewHMACSignatureService()

	assert.Equal(t, svc.Sign("k", "p"), svc.Sign("k", "p"))
	assert.NotEqual(t, svc.Sign("k", "p"), svc.Sign("k", "q"))
}
