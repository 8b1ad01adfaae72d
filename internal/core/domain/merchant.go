package domain

import (
	"time"

	"github.com/google/uuid"
)

// KYCStatus represents the review state of a merchant's KYC submission.
// The review workflow itself lives outside this service; the ledger core
// only reads the outcome.
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "PENDING"
	KYCStatusApproved KYCStatus = "APPROVED"
	KYCStatusRejected KYCStatus = "REJECTED"
)

// Environment separates test and live rail credentials and traffic.
type Environment string

const (
	EnvironmentTest Environment = "TEST"
	EnvironmentLive Environment = "LIVE"
)

// Merchant is the read model of a merchant account. Registration, KYC
// review and key issuance are external collaborator concerns.
type Merchant struct {
	ID            uuid.UUID   `json:"id"`
	BusinessName  string      `json:"business_name"`
	AccessKey     string      `json:"access_key"`
	SecretKeyHash string      `json:"-"` // Argon2id, never expose
	KYCStatus     KYCStatus   `json:"kyc_status"`
	Enabled       bool        `json:"enabled"`
	Environment   Environment `json:"environment"`
	WebhookURL    *string     `json:"webhook_url,omitempty"`

	// WebhookSecret signs outbound notifications to the merchant. Configured
	// alongside the webhook URL; distinct from the API secret, which is never
	// stored in recoverable form.
	WebhookSecret string `json:"-"`

	// Current bank details; snapshotted into each payout at request time so
	// later edits never retarget an in-flight transfer.
	BankCode          string `json:"-"`
	BankAccountNumber string `json:"-"`
	BankAccountName   string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanRequestPayout returns true if the merchant may move funds out.
func (m *Merchant) CanRequestPayout() bool {
	return m.Enabled && m.KYCStatus == KYCStatusApproved
}
