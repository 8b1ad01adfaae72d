package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus is the lifecycle state of an outbound transfer request.
// PENDING is the only non-terminal state.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "PENDING"
	PayoutStatusSuccess PayoutStatus = "SUCCESS"
	PayoutStatusFailed  PayoutStatus = "FAILED"
)

// BankSnapshot is the payout destination frozen at request time. Later
// changes to the merchant's bank details must not retarget an in-flight
// payout, so the payout row carries its own copy. The account number is
// AES-GCM encrypted at rest; only a masked form is ever exposed.
type BankSnapshot struct {
	BankCode            string `json:"bank_code"`
	AccountNumberEnc    string `json:"account_number_enc"`
	AccountNumberMasked string `json:"account_number_masked"`
	AccountName         string `json:"account_name"`
}

// Payout is one outbound transfer request. Unlike Transaction, its balance
// effect (the reservation) happens at creation and is reversed on failure.
type Payout struct {
	ID          uuid.UUID       `json:"id"`
	Reference   string          `json:"reference"`
	MerchantID  uuid.UUID       `json:"merchant_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      PayoutStatus    `json:"status"`
	Environment Environment     `json:"environment"`
	Bank        BankSnapshot    `json:"bank"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

// IsTerminal returns true once the payout has left PENDING.
func (p *Payout) IsTerminal() bool {
	return p.Status != PayoutStatusPending
}
