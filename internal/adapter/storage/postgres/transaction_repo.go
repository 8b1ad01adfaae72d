package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, reference, merchant_id, amount, fee, net_amount, currency,
		payment_type, provider, environment, status, settled,
		checkout_url, deposit_address, network, tx_hash, metadata, created_at, settled_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, reference, merchant_id, amount, fee, net_amount, currency,
		payment_type, provider, environment, status, settled,
		checkout_url, deposit_address, network, tx_hash, metadata, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Reference, t.MerchantID, t.Amount, t.Fee, t.NetAmount, t.Currency,
		t.PaymentType, t.Provider, t.Environment, t.Status, t.Settled,
		t.CheckoutURL, t.DepositAddress, t.Network, t.TxHash, t.Metadata,
		t.CreatedAt, t.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByReference fetches a transaction by its reference (non-locking read).
func (r *TransactionRepo) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE reference = $1`, transactionColumns)

	return scanTransaction(r.pool.QueryRow(ctx, query, reference))
}

// GetByReferenceForUpdate fetches a transaction by reference with pessimistic
// locking. This MUST be called within a transaction; the entity row lock is
// always acquired before any wallet lock.
func (r *TransactionRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE reference = $1 FOR UPDATE`, transactionColumns)

	return scanTransaction(tx.QueryRow(ctx, query, reference))
}

// ListPendingByDepositAddressForUpdate locks and returns PENDING crypto
// transactions matching the deposit address. At most two rows are fetched:
// a second row already proves the match is ambiguous.
func (r *TransactionRepo) ListPendingByDepositAddressForUpdate(ctx context.Context, tx pgx.Tx, address string) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions
		WHERE deposit_address = $1 AND payment_type = 'CRYPTO' AND status = 'PENDING'
		ORDER BY created_at LIMIT 2 FOR UPDATE`, transactionColumns)

	rows, err := tx.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("list pending by deposit address: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := scanTransactionInto(rows, &t); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// UpdateRailDetails persists provider-assigned fields after the gateway call
// at initiation.
func (r *TransactionRepo) UpdateRailDetails(ctx context.Context, t *domain.Transaction) error {
	query := `UPDATE transactions SET checkout_url = $1, deposit_address = $2, network = $3 WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, t.CheckoutURL, t.DepositAddress, t.Network, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction rail details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", t.ID)
	}
	return nil
}

// Settle applies the terminal transition within the caller's transaction:
// status, settled flag, optional tx hash and settlement time flip together.
func (r *TransactionRepo) Settle(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, txHash *string, settledAt time.Time) error {
	query := `UPDATE transactions SET status = $1, settled = TRUE, tx_hash = COALESCE($2, tx_hash), settled_at = $3 WHERE id = $4`

	tag, err := tx.Exec(ctx, query, status, txHash, settledAt, id)
	if err != nil {
		return fmt.Errorf("settle transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// List fetches transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", argIdx))
	args = append(args, params.MerchantID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.PaymentType != nil {
		conditions = append(conditions, fmt.Sprintf("payment_type = $%d", argIdx))
		args = append(args, *params.PaymentType)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := scanTransactionInto(rows, &t); err != nil {
			return nil, 0, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Reference, &t.MerchantID, &t.Amount, &t.Fee, &t.NetAmount, &t.Currency,
		&t.PaymentType, &t.Provider, &t.Environment, &t.Status, &t.Settled,
		&t.CheckoutURL, &t.DepositAddress, &t.Network, &t.TxHash, &t.Metadata,
		&t.CreatedAt, &t.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func scanTransactionInto(rows pgx.Rows, t *domain.Transaction) error {
	err := rows.Scan(
		&t.ID, &t.Reference, &t.MerchantID, &t.Amount, &t.Fee, &t.NetAmount, &t.Currency,
		&t.PaymentType, &t.Provider, &t.Environment, &t.Status, &t.Settled,
		&t.CheckoutURL, &t.DepositAddress, &t.Network, &t.TxHash, &t.Metadata,
		&t.CreatedAt, &t.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("scan transaction row: %w", err)
	}
	return nil
}
