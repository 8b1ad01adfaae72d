package ports

import (
	"context"
	"time"

	"merchant-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerService owns every wallet balance mutation. The four primitives are
// the only paths that touch balances; each runs against the caller's
// transaction and takes the wallet row lock, so the reconciliation engine
// can compose them atomically with a state transition.
type LedgerService interface {
	// CreditPending adds to pending_balance, creating the wallet lazily.
	CreditPending(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error
	// MovePendingToAvailable shifts settled funds. Pending below amount is an
	// invariant violation, not a user error.
	MovePendingToAvailable(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error
	// ReserveAvailable debits available_balance for a payout reservation.
	ReserveAvailable(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error
	// ReleaseAvailable reverses a reservation after a failed transfer.
	ReleaseAvailable(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string, amount decimal.Decimal) error
}

// PaymentService creates inbound payment attempts. Settlement is never
// synchronous here: only the reconciliation engine advances terminal state.
type PaymentService interface {
	InitiateFiatPayment(ctx context.Context, req InitiateFiatPaymentRequest) (*domain.Transaction, error)
	InitiateCryptoPayment(ctx context.Context, req InitiateCryptoPaymentRequest) (*domain.Transaction, error)
}

// InitiateFiatPaymentRequest holds validated input for a fiat charge.
type InitiateFiatPaymentRequest struct {
	MerchantID    uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CustomerName  string
	RedirectURL   string
}

// InitiateCryptoPaymentRequest holds validated input for a crypto deposit.
type InitiateCryptoPaymentRequest struct {
	MerchantID uuid.UUID
	Amount     decimal.Decimal
	Currency   string // coin, e.g. USDT
	Network    string // chain, e.g. TRC20
}

// PayoutService creates outbound transfer requests with an immediate
// balance reservation.
type PayoutService interface {
	RequestPayout(ctx context.Context, req PayoutRequest) (*domain.Payout, error)
}

// PayoutRequest holds validated input for a payout.
type PayoutRequest struct {
	MerchantID uuid.UUID
	Amount     decimal.Decimal
	Currency   string
	ClientIP   string
}

// ReconcileService applies verified provider events to ledger state,
// exactly once per entity. All methods are idempotent: redelivery yields
// ReconcileAlreadyProcessed without balance effects.
type ReconcileService interface {
	ApplyChargeEvent(ctx context.Context, event domain.ProviderEvent) (domain.ReconcileStatus, error)
	ApplyTransferEvent(ctx context.Context, event domain.ProviderEvent) (domain.ReconcileStatus, error)
	ApplyDepositEvent(ctx context.Context, event domain.ProviderEvent) (domain.ReconcileStatus, error)
	// ConfirmTransaction is the manual settlement path. It shares the guarded
	// transition primitive with the webhook paths.
	ConfirmTransaction(ctx context.Context, reference string, outcome domain.EventOutcome) (domain.ReconcileStatus, error)
}

// WebhookVerifier authenticates inbound provider notifications per rail and
// environment before they may reach the reconciliation engine.
type WebhookVerifier interface {
	// VerifyFlutterwave checks the verif-hash header against the webhook
	// secret of the given environment (resolved from stored entity state,
	// never from the unverified payload).
	VerifyFlutterwave(env domain.Environment, signature string) error
	// VerifyBybit checks HMAC-SHA256(timestamp + body) against the API secret
	// of the environment fixed by the endpoint path.
	VerifyBybit(env domain.Environment, timestamp, signature string, body []byte) error
}

// WalletBalance is one row of the merchant wallet snapshot.
type WalletBalance struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available_balance"`
	Pending   decimal.Decimal `json:"pending_balance"`
}

// ReportingService is the read-only query surface for the external CRUD
// layer. Pure reads, no locking.
type ReportingService interface {
	GetWalletSnapshot(ctx context.Context, merchantID uuid.UUID) ([]WalletBalance, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListPayouts(ctx context.Context, merchantID uuid.UUID, page, pageSize int) ([]domain.Payout, int64, error)
}

// Notifier delivers post-commit state-change notifications to merchants.
// Must only ever be invoked after a successful commit, never inside a
// locked transition.
type Notifier interface {
	NotifyTransaction(ctx context.Context, txn *domain.Transaction) error
	NotifyPayout(ctx context.Context, payout *domain.Payout) error
}

// SignatureService handles HMAC-SHA256 signing and constant-time
// verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// EncryptionService handles AES-256-GCM encryption of data at rest
// (payout bank account numbers).
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService verifies merchant API secrets against their Argon2id hashes.
// Issuing secrets is the external collaborator's job.
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService validates JWTs for the read-only query surface. Tokens are
// issued by the external auth collaborator with the shared secret.
type TokenService interface {
	Generate(merchantID uuid.UUID, accessKey string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MerchantID uuid.UUID
	AccessKey  string
}

// EventCache is the redis fast path for acknowledging redelivered webhooks
// without hitting the row lock. The settled flag under lock stays
// authoritative; this is best-effort.
type EventCache interface {
	// Get returns the cached ack status for the event key, or "" on miss.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, status string, ttl time.Duration) error
}

// AuditService records security and invariant events, best-effort.
type AuditService interface {
	Record(ctx context.Context, record domain.AuditRecord)
}
