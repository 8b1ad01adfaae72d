package ports

import (
	"context"

	"merchant-payment-gateway/internal/core/domain"

	"github.com/shopspring/decimal"
)

// FiatGateway abstracts the fiat processor rail. Every call is fallible and
// network-latent; none of them settles anything — only webhooks (or the
// explicit confirm path) advance terminal state.
type FiatGateway interface {
	InitializePayment(ctx context.Context, env domain.Environment, req InitializePaymentRequest) (*InitializePaymentResult, error)
	InitiateTransfer(ctx context.Context, env domain.Environment, req InitiateTransferRequest) error
	GetTransferStatus(ctx context.Context, env domain.Environment, reference string) (string, error)
	ListBanks(ctx context.Context, env domain.Environment, country string) ([]Bank, error)
}

// InitializePaymentRequest is the hosted-checkout creation request.
type InitializePaymentRequest struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	RedirectURL   string
	CustomerEmail string
	CustomerName  string
	Title         string
}

// InitializePaymentResult carries the hosted checkout URL.
type InitializePaymentResult struct {
	CheckoutURL string
}

// InitiateTransferRequest is the outbound bank transfer request.
type InitiateTransferRequest struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	BankCode      string
	AccountNumber string
	AccountName   string
	Narration     string
	CallbackURL   string
}

// Bank is one entry of the processor's bank directory.
type Bank struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Currency string `json:"currency,omitempty"`
}

// CryptoGateway abstracts the crypto exchange rail.
type CryptoGateway interface {
	GetDepositAddress(ctx context.Context, env domain.Environment, coin, network string) (*DepositAddress, error)
	GetCoinInfo(ctx context.Context, env domain.Environment) ([]CoinInfo, error)
	GetDepositRecords(ctx context.Context, env domain.Environment, coin string, limit int) ([]DepositRecord, error)
}

// DepositAddress is a chain-specific deposit destination.
type DepositAddress struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"` // memo for coins that need one
	Network string `json:"network"`
}

// CoinInfo describes one depositable coin and its chains.
type CoinInfo struct {
	Coin   string      `json:"coin"`
	Name   string      `json:"name"`
	Chains []CoinChain `json:"chains"`
}

// CoinChain describes one network of a coin.
type CoinChain struct {
	Chain          string `json:"chain"`
	ChainType      string `json:"chain_type"`
	MinDeposit     string `json:"min_deposit"`
	Confirmations  string `json:"confirmations"`
	DepositEnabled bool   `json:"deposit_enabled"`
}

// DepositRecord is one exchange-side deposit entry, used for manual
// reconciliation tooling.
type DepositRecord struct {
	Coin    string `json:"coin"`
	Amount  string `json:"amount"`
	Address string `json:"address"`
	TxHash  string `json:"tx_hash"`
	Status  string `json:"status"`
}
