package ports

import (
	"context"
	"time"

	"merchant-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MerchantRepository reads the merchant collaborator's state. The core never
// writes merchants.
type MerchantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByAccessKey(ctx context.Context, accessKey string) (*domain.Merchant, error)
}

// WalletRepository defines persistence for wallets.
// Methods accepting pgx.Tx run inside transaction blocks for pessimistic
// locking; the wallet row lock is always taken after the entity row lock.
type WalletRepository interface {
	// Create inserts a wallet inside the caller's transaction (lazy creation
	// on first credit happens under the same unit of work as the credit).
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByMerchant(ctx context.Context, merchantID uuid.UUID, currency string) (*domain.Wallet, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error)
	// GetByMerchantForUpdate locks the wallet row. MUST be called within a
	// transaction.
	GetByMerchantForUpdate(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string) (*domain.Wallet, error)
	UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, available, pending decimal.Decimal) error
}

// TransactionRepository defines persistence for inbound payment attempts.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// GetByReferenceForUpdate locks the transaction row; the entity lock is
	// acquired before any wallet lock per the global lock order.
	GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.Transaction, error)
	// ListPendingByDepositAddressForUpdate locks and returns every PENDING
	// crypto transaction for the address (at most two rows are fetched; more
	// than one means the match is ambiguous and the caller must reject it).
	ListPendingByDepositAddressForUpdate(ctx context.Context, tx pgx.Tx, address string) ([]domain.Transaction, error)
	// UpdateRailDetails persists provider-assigned fields (checkout URL,
	// deposit address, network) after the gateway call at initiation.
	UpdateRailDetails(ctx context.Context, txn *domain.Transaction) error
	// Settle applies the terminal transition: status, settled flag, optional
	// tx hash, settlement time. Runs inside the caller's transaction.
	Settle(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, txHash *string, settledAt time.Time) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	MerchantID  uuid.UUID
	Status      *domain.TransactionStatus
	PaymentType *domain.PaymentType
	Page        int
	PageSize    int
}

// PayoutRepository defines persistence for outbound transfer requests.
type PayoutRepository interface {
	// Create inserts the payout inside the caller's transaction so the row
	// and the balance reservation commit together or not at all.
	Create(ctx context.Context, tx pgx.Tx, payout *domain.Payout) error
	GetByReference(ctx context.Context, reference string) (*domain.Payout, error)
	GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.Payout, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, processedAt time.Time) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, page, pageSize int) ([]domain.Payout, int64, error)
}

// WebhookEventRepository stores received provider notifications, unique per
// (provider, reference, kind).
type WebhookEventRepository interface {
	// Insert records the event. Returns false without error when an event
	// with the same identity was already recorded.
	Insert(ctx context.Context, event *domain.WebhookEvent) (bool, error)
}

// AuditRepository stores security and invariant event records.
type AuditRepository interface {
	Create(ctx context.Context, record *domain.AuditRecord) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	// BeginWithLockTimeout starts a transaction whose row-lock waits are
	// bounded. Expiry surfaces as a retryable lock-timeout error.
	BeginWithLockTimeout(ctx context.Context, timeout time.Duration) (pgx.Tx, error)
}
