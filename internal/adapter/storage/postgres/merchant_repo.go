package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const merchantColumns = `id, business_name, access_key, secret_key_hash, kyc_status, enabled, environment,
		webhook_url, webhook_secret, bank_code, bank_account_number, bank_account_name,
		created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository. It is read-only: merchant
// onboarding and key issuance happen in an external system.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// GetByID fetches a merchant by UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE id = $1`, merchantColumns)

	return scanMerchant(r.pool.QueryRow(ctx, query, id))
}

// GetByAccessKey fetches a merchant by API access key.
func (r *MerchantRepo) GetByAccessKey(ctx context.Context, accessKey string) (*domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE access_key = $1`, merchantColumns)

	return scanMerchant(r.pool.QueryRow(ctx, query, accessKey))
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.BusinessName, &m.AccessKey, &m.SecretKeyHash, &m.KYCStatus, &m.Enabled, &m.Environment,
		&m.WebhookURL, &m.WebhookSecret, &m.BankCode, &m.BankAccountNumber, &m.BankAccountName,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}
