package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a merchant's balance in one currency. Exactly one wallet
// exists per (merchant, currency); it is created lazily on first credit.
//
// AvailableBalance and PendingBalance are both >= 0 at all times. Balances
// are mutated only through the ledger service primitives, never by direct
// assignment from any other component.
type Wallet struct {
	ID               uuid.UUID       `json:"id"`
	MerchantID       uuid.UUID       `json:"merchant_id"`
	Currency         string          `json:"currency"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewWallet returns a zero-balance wallet for the merchant and currency.
func NewWallet(merchantID uuid.UUID, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:               uuid.New(),
		MerchantID:       merchantID,
		Currency:         currency,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
