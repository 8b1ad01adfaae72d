package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction classifies recorded security and invariant events.
type AuditAction string

const (
	AuditActionSignatureRejected AuditAction = "SIGNATURE_REJECTED"
	AuditActionAmbiguousMatch    AuditAction = "AMBIGUOUS_MATCH"
	AuditActionInvariantBreach   AuditAction = "INVARIANT_BREACH"
	AuditActionPayoutRequested   AuditAction = "PAYOUT_REQUESTED"
	AuditActionManualConfirm     AuditAction = "MANUAL_CONFIRM"
)

// AuditRecord is a single audited event. Signature failures and ledger
// invariant breaches land here so they can feed alerting.
type AuditRecord struct {
	ID         uuid.UUID   `json:"id"`
	MerchantID *uuid.UUID  `json:"merchant_id,omitempty"`
	Action     AuditAction `json:"action"`
	Provider   string      `json:"provider,omitempty"`
	Reference  string      `json:"reference,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	IPAddress  string      `json:"ip_address,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
