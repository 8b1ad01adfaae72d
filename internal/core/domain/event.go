package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind groups provider events by the entity they advance.
type EventKind string

const (
	EventKindCharge   EventKind = "CHARGE"   // fiat inbound payment
	EventKindTransfer EventKind = "TRANSFER" // fiat outbound payout
	EventKindDeposit  EventKind = "DEPOSIT"  // crypto inbound payment
)

// EventOutcome is the terminal outcome a provider reports.
type EventOutcome string

const (
	EventOutcomeSuccess EventOutcome = "SUCCESS"
	EventOutcomeFailed  EventOutcome = "FAILED"
)

// ProviderEvent is a webhook notification that already passed signature
// verification. Only the reconciliation engine consumes these.
type ProviderEvent struct {
	Provider    Provider
	Environment Environment
	Kind        EventKind
	Event       string // raw provider event name, e.g. "charge.completed"
	Reference   string // empty for crypto deposits (matched by address)
	Outcome     EventOutcome
	Amount      decimal.Decimal
	Currency    string

	// Crypto deposit fields.
	DepositAddress string
	TxHash         string

	// Raw request body, kept for the durable event log.
	Payload string
}

// ReconcileStatus is the business outcome acknowledged to the provider.
// All three are 200 responses; redelivery of a processed event is not an
// error.
type ReconcileStatus string

const (
	ReconcileOK               ReconcileStatus = "ok"
	ReconcileIgnored          ReconcileStatus = "ignored"
	ReconcileAlreadyProcessed ReconcileStatus = "already_processed"
)

// WebhookEvent is the durable record of a received provider notification,
// unique per (provider, reference, kind).
type WebhookEvent struct {
	ID        uuid.UUID `json:"id"`
	Provider  Provider  `json:"provider"`
	Kind      EventKind `json:"kind"`
	Reference string    `json:"reference"`
	Payload   string    `json:"payload"` // raw JSON body
	CreatedAt time.Time `json:"created_at"`
}
