package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"merchant-payment-gateway/config"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/pkg/apperror"
)

// WebhookVerifierService implements ports.WebhookVerifier against the
// per-environment provider credentials. TEST and LIVE secrets of one rail
// are unrelated key material, so every check starts by selecting the
// credential set for the entity's stored environment.
type WebhookVerifierService struct {
	providers config.ProvidersConfig
}

// NewWebhookVerifierService creates a verifier over the configured
// provider credentials.
func NewWebhookVerifierService(providers config.ProvidersConfig) *WebhookVerifierService {
	return &WebhookVerifierService{providers: providers}
}

// VerifyFlutterwave checks the verif-hash header value against the webhook
// secret of the given environment. The comparison is constant-time; a
// missing header fails the same way as a wrong one.
func (s *WebhookVerifierService) VerifyFlutterwave(env domain.Environment, signature string) error {
	var secret string
	switch env {
	case domain.EnvironmentTest:
		secret = s.providers.Flutterwave.Test.WebhookSecret
	case domain.EnvironmentLive:
		secret = s.providers.Flutterwave.Live.WebhookSecret
	default:
		return apperror.ErrUnknownEnvironment(string(env))
	}

	if secret == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(secret)) != 1 {
		return apperror.ErrInvalidSignature()
	}
	return nil
}

// VerifyBybit checks HMAC-SHA256(timestamp + body) against the API secret
// of the environment the endpoint path fixed.
func (s *WebhookVerifierService) VerifyBybit(env domain.Environment, timestamp, signature string, body []byte) error {
	var secret string
	switch env {
	case domain.EnvironmentTest:
		secret = s.providers.Bybit.Test.APISecret
	case domain.EnvironmentLive:
		secret = s.providers.Bybit.Live.APISecret
	default:
		return apperror.ErrUnknownEnvironment(string(env))
	}
	if secret == "" || timestamp == "" {
		return apperror.ErrInvalidSignature()
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return apperror.ErrInvalidSignature()
	}
	return nil
}
