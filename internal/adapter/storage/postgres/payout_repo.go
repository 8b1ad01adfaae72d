package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merchant-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const payoutColumns = `id, reference, merchant_id, amount, currency, status, environment,
		bank_code, bank_account_number_enc, bank_account_number_masked, bank_account_name,
		created_at, processed_at`

// PayoutRepo implements ports.PayoutRepository.
type PayoutRepo struct {
	pool Pool
}

// NewPayoutRepo creates a new PayoutRepo.
func NewPayoutRepo(pool Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

// Create inserts a new payout within the caller's transaction so the row and
// the balance reservation commit together.
func (r *PayoutRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payout) error {
	query := `INSERT INTO payouts (id, reference, merchant_id, amount, currency, status, environment,
		bank_code, bank_account_number_enc, bank_account_number_masked, bank_account_name,
		created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.Reference, p.MerchantID, p.Amount, p.Currency, p.Status, p.Environment,
		p.Bank.BankCode, p.Bank.AccountNumberEnc, p.Bank.AccountNumberMasked, p.Bank.AccountName,
		p.CreatedAt, p.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

// GetByReference fetches a payout by its reference (non-locking read).
func (r *PayoutRepo) GetByReference(ctx context.Context, reference string) (*domain.Payout, error) {
	query := fmt.Sprintf(`SELECT %s FROM payouts WHERE reference = $1`, payoutColumns)

	return scanPayout(r.pool.QueryRow(ctx, query, reference))
}

// GetByReferenceForUpdate fetches a payout by reference with pessimistic
// locking. This MUST be called within a transaction.
func (r *PayoutRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.Payout, error) {
	query := fmt.Sprintf(`SELECT %s FROM payouts WHERE reference = $1 FOR UPDATE`, payoutColumns)

	return scanPayout(tx.QueryRow(ctx, query, reference))
}

// UpdateStatus applies the terminal transition within the caller's transaction.
func (r *PayoutRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, processedAt time.Time) error {
	query := `UPDATE payouts SET status = $1, processed_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, status, processedAt, id)
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payout not found: %s", id)
	}
	return nil
}

// ListByMerchant fetches a merchant's payouts with pagination.
func (r *PayoutRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, page, pageSize int) ([]domain.Payout, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payouts WHERE merchant_id = $1`, merchantID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payouts: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`SELECT %s FROM payouts WHERE merchant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, payoutColumns)

	rows, err := r.pool.Query(ctx, query, merchantID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		p := domain.Payout{}
		err := rows.Scan(
			&p.ID, &p.Reference, &p.MerchantID, &p.Amount, &p.Currency, &p.Status, &p.Environment,
			&p.Bank.BankCode, &p.Bank.AccountNumberEnc, &p.Bank.AccountNumberMasked, &p.Bank.AccountName,
			&p.CreatedAt, &p.ProcessedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payout row: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payout rows: %w", err)
	}
	return payouts, total, nil
}

// scanPayout is a helper to scan a single row into a Payout.
func scanPayout(row pgx.Row) (*domain.Payout, error) {
	p := &domain.Payout{}
	err := row.Scan(
		&p.ID, &p.Reference, &p.MerchantID, &p.Amount, &p.Currency, &p.Status, &p.Environment,
		&p.Bank.BankCode, &p.Bank.AccountNumberEnc, &p.Bank.AccountNumberMasked, &p.Bank.AccountName,
		&p.CreatedAt, &p.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payout: %w", err)
	}
	return p, nil
}
