package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType identifies the rail an inbound payment arrives on.
type PaymentType string

const (
	PaymentTypeFiat   PaymentType = "FIAT"
	PaymentTypeCrypto PaymentType = "CRYPTO"
)

// Provider identifies the external rail operator.
type Provider string

const (
	ProviderFlutterwave Provider = "FLUTTERWAVE"
	ProviderBybit       Provider = "BYBIT"
)

// TransactionStatus is the lifecycle state of an inbound payment.
// PENDING is the only non-terminal state.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// Reference prefixes. The prefix disambiguates rails when resolving a
// webhook reference: fiat charges, crypto deposits and payouts live in
// disjoint namespaces.
const (
	FiatReferencePrefix   = "TX-"
	CryptoReferencePrefix = "CR-"
	PayoutReferencePrefix = "PO-"
)

// NewFiatReference generates a globally unique fiat payment reference.
func NewFiatReference() string {
	return FiatReferencePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewCryptoReference generates a globally unique crypto payment reference.
func NewCryptoReference() string {
	return CryptoReferencePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewPayoutReference generates a globally unique payout reference.
func NewPayoutReference() string {
	return PayoutReferencePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Transaction is one inbound payment attempt. The reference doubles as the
// idempotency key for all provider callbacks. Rows are never deleted.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	Reference   string            `json:"reference"`
	MerchantID  uuid.UUID         `json:"merchant_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Fee         decimal.Decimal   `json:"fee"`
	NetAmount   decimal.Decimal   `json:"net_amount"`
	Currency    string            `json:"currency"`
	PaymentType PaymentType       `json:"payment_type"`
	Provider    Provider          `json:"provider"`
	Environment Environment       `json:"environment"`
	Status      TransactionStatus `json:"status"`

	// Settled flips false->true exactly once, in the same atomic step as the
	// terminal status change and any balance mutation. It is the transition
	// guard: events arriving after it is set are acknowledged as already
	// processed without re-running balance mutations.
	Settled bool `json:"settled"`

	// Fiat rail fields.
	CheckoutURL *string `json:"checkout_url,omitempty"`

	// Crypto rail fields.
	DepositAddress *string `json:"deposit_address,omitempty"`
	Network        *string `json:"network,omitempty"`
	TxHash         *string `json:"tx_hash,omitempty"`

	Metadata  *string    `json:"metadata,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// IsTerminal returns true once the transaction has left PENDING.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}

// CanSettle reports whether a terminal transition is still legal.
func (t *Transaction) CanSettle() bool {
	return t.Status == TransactionStatusPending && !t.Settled
}
