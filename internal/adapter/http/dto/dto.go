package dto

import "github.com/shopspring/decimal"

// FiatPaymentRequest is the request body for initiating a fiat charge.
type FiatPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"required,len=3"`
	CustomerEmail string          `json:"customer_email" binding:"required,email"`
	CustomerName  string          `json:"customer_name" binding:"required,max=100"`
	RedirectURL   string          `json:"redirect_url" binding:"omitempty,url"`
}

// CryptoPaymentRequest is the request body for initiating a crypto deposit.
type CryptoPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required,min=2,max=10"`
	Network  string          `json:"network" binding:"required,min=2,max=20"`
}

// ConfirmTransactionRequest is the request body for the manual settle path.
type ConfirmTransactionRequest struct {
	Reference string `json:"reference" binding:"required,max=100"`
	Outcome   string `json:"outcome" binding:"required,oneof=SUCCESS FAILED"`
}

// PayoutRequest is the request body for requesting a payout.
type PayoutRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required,len=3"`
}

// TransactionResponse is the API shape of one inbound payment attempt.
type TransactionResponse struct {
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Fee            decimal.Decimal `json:"fee"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	Currency       string          `json:"currency"`
	PaymentType    string          `json:"payment_type"`
	Status         string          `json:"status"`
	CheckoutURL    *string         `json:"checkout_url,omitempty"`
	DepositAddress *string         `json:"deposit_address,omitempty"`
	Network        *string         `json:"network,omitempty"`
	TxHash         *string         `json:"tx_hash,omitempty"`
	CreatedAt      string          `json:"created_at"`
	SettledAt      *string         `json:"settled_at,omitempty"`
}

// PayoutResponse is the API shape of one outbound transfer request.
type PayoutResponse struct {
	Reference           string          `json:"reference"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	Status              string          `json:"status"`
	BankCode            string          `json:"bank_code"`
	AccountNumberMasked string          `json:"account_number_masked"`
	AccountName         string          `json:"account_name"`
	CreatedAt           string          `json:"created_at"`
	ProcessedAt         *string         `json:"processed_at,omitempty"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// PayoutListResponse wraps a paginated payout list.
type PayoutListResponse struct {
	Items      []PayoutResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// FlutterwaveWebhook is the inbound notification body shared by charge and
// transfer events.
type FlutterwaveWebhook struct {
	Event string `json:"event"`
	Data  struct {
		TxRef     string          `json:"tx_ref"`    // charge events
		Reference string          `json:"reference"` // transfer events
		Status    string          `json:"status"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
	} `json:"data"`
}

// BybitWebhook is the inbound deposit notification body.
type BybitWebhook struct {
	Event string `json:"event"`
	Data  struct {
		Address string          `json:"address"`
		Amount  decimal.Decimal `json:"amount"`
		Coin    string          `json:"coin"`
		TxHash  string          `json:"txHash"`
		Status  string          `json:"status"` // success / failed
	} `json:"data"`
}
