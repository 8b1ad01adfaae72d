package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// notifyRetryIntervals is the delivery retry schedule.
var notifyRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// Notification event types.
const (
	EventTransactionUpdate = "TRANSACTION_UPDATE"
	EventPayoutUpdate      = "PAYOUT_UPDATE"
)

// NotificationPayload is the JSON structure sent to the merchant's webhook
// URL. The signature is HMAC-SHA256 of the data object, keyed with the
// merchant's webhook secret.
type NotificationPayload struct {
	EventType string           `json:"event_type"`
	Data      NotificationData `json:"data"`
	Signature string           `json:"signature"`
}

// NotificationData holds the entity details in the notification.
type NotificationData struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	TxHash    string          `json:"tx_hash,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// notifyService implements ports.Notifier. Callers invoke it strictly after
// a successful commit; delivery itself is asynchronous with retries.
type notifyService struct {
	merchantRepo ports.MerchantRepository
	sigSvc       ports.SignatureService
	httpClient   HTTPClient
	log          zerolog.Logger
}

// NewNotifyService creates a new merchant notification service.
func NewNotifyService(
	merchantRepo ports.MerchantRepository,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) ports.Notifier {
	return &notifyService{
		merchantRepo: merchantRepo,
		sigSvc:       sigSvc,
		httpClient:   httpClient,
		log:          log,
	}
}

// NotifyTransaction sends a transaction state-change notification.
func (s *notifyService) NotifyTransaction(ctx context.Context, txn *domain.Transaction) error {
	data := NotificationData{
		Reference: txn.Reference,
		Status:    string(txn.Status),
		Amount:    txn.Amount,
		Currency:  txn.Currency,
		Timestamp: time.Now().Unix(),
	}
	if txn.TxHash != nil {
		data.TxHash = *txn.TxHash
	}
	return s.enqueue(ctx, txn.MerchantID, EventTransactionUpdate, data)
}

// NotifyPayout sends a payout state-change notification.
func (s *notifyService) NotifyPayout(ctx context.Context, payout *domain.Payout) error {
	return s.enqueue(ctx, payout.MerchantID, EventPayoutUpdate, NotificationData{
		Reference: payout.Reference,
		Status:    string(payout.Status),
		Amount:    payout.Amount,
		Currency:  payout.Currency,
		Timestamp: time.Now().Unix(),
	})
}

func (s *notifyService) enqueue(ctx context.Context, merchantID uuid.UUID, eventType string, data NotificationData) error {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		s.log.Error().Err(err).Msg("notify: failed to fetch merchant")
		return err
	}
	if merchant == nil || merchant.WebhookURL == nil || *merchant.WebhookURL == "" {
		s.log.Debug().Str("reference", data.Reference).Msg("notify: no webhook URL configured, skipping")
		return nil
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}

	payload := NotificationPayload{
		EventType: eventType,
		Data:      data,
	}
	if merchant.WebhookSecret != "" {
		payload.Signature = s.sigSvc.Sign(merchant.WebhookSecret, string(dataBytes))
	}

	go s.deliverWithRetries(*merchant.WebhookURL, payload, data.Reference)
	return nil
}

// deliverWithRetries attempts delivery until a 2xx response or the schedule
// is exhausted.
func (s *notifyService) deliverWithRetries(url string, payload NotificationPayload, reference string) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("reference", reference).Msg("notify: failed to marshal payload")
		return
	}

	for attempt := 0; attempt <= len(notifyRetryIntervals); attempt++ {
		if attempt > 0 {
			time.Sleep(notifyRetryIntervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payloadBytes))
		if err != nil {
			s.log.Error().Err(err).Str("reference", reference).Int("attempt", attempt+1).Msg("notify: failed to create request")
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.log.Warn().Err(err).Str("reference", reference).Int("attempt", attempt+1).Msg("notify: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Str("reference", reference).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("notify: delivered")
			return
		}

		s.log.Warn().Str("reference", reference).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("notify: non-2xx response, retrying")
	}

	s.log.Error().Str("reference", reference).Msg("notify: all retry attempts exhausted")
}
