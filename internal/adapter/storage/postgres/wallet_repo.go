package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet within the caller's transaction. Lazy wallet
// creation commits together with the credit that triggered it.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, merchant_id, currency, available_balance, pending_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.MerchantID, w.Currency, w.AvailableBalance,
		w.PendingBalance, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByMerchant fetches a wallet by merchant ID and currency (non-locking read).
func (r *WalletRepo) GetByMerchant(ctx context.Context, merchantID uuid.UUID, currency string) (*domain.Wallet, error) {
	query := `SELECT id, merchant_id, currency, available_balance, pending_balance, created_at, updated_at
		FROM wallets WHERE merchant_id = $1 AND currency = $2`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, merchantID, currency).Scan(
		&w.ID, &w.MerchantID, &w.Currency, &w.AvailableBalance,
		&w.PendingBalance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by merchant: %w", err)
	}
	return w, nil
}

// ListByMerchant fetches all wallets of a merchant ordered by currency.
func (r *WalletRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT id, merchant_id, currency, available_balance, pending_balance, created_at, updated_at
		FROM wallets WHERE merchant_id = $1 ORDER BY currency`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w := domain.Wallet{}
		err := rows.Scan(
			&w.ID, &w.MerchantID, &w.Currency, &w.AvailableBalance,
			&w.PendingBalance, &w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// GetByMerchantForUpdate fetches a wallet by merchant ID and currency with
// pessimistic locking. This MUST be called within a transaction, and only
// after any entity row lock has been acquired.
func (r *WalletRepo) GetByMerchantForUpdate(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string) (*domain.Wallet, error) {
	query := `SELECT id, merchant_id, currency, available_balance, pending_balance, created_at, updated_at
		FROM wallets WHERE merchant_id = $1 AND currency = $2 FOR UPDATE`

	w := &domain.Wallet{}
	err := tx.QueryRow(ctx, query, merchantID, currency).Scan(
		&w.ID, &w.MerchantID, &w.Currency, &w.AvailableBalance,
		&w.PendingBalance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateBalances writes both balances within a transaction.
func (r *WalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, available, pending decimal.Decimal) error {
	query := `UPDATE wallets SET available_balance = $1, pending_balance = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, available, pending, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}
