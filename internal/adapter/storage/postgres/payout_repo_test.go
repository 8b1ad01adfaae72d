package postgres

import (
	"context"
	"testing"
	"time"

	"merchant-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayout(merchantID uuid.UUID) *domain.Payout {
	return &domain.Payout{
		ID:          uuid.New(),
		Reference:   domain.NewPayoutReference(),
		MerchantID:  merchantID,
		Amount:      decimal.RequireFromString("5000"),
		Currency:    "NGN",
		Status:      domain.PayoutStatusPending,
		Environment: domain.EnvironmentLive,
		Bank: domain.BankSnapshot{
			BankCode:            "044",
			AccountNumberEnc:    "enc_0690000031",
			AccountNumberMasked: "******0031",
			AccountName:         "Forrest Green",
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func payoutTestColumns() []string {
	return []string{
		"id", "reference", "merchant_id", "amount", "currency", "status", "environment",
		"bank_code", "bank_account_number_enc", "bank_account_number_masked", "bank_account_name",
		"created_at", "processed_at",
	}
}

func payoutRow(p *domain.Payout) *pgxmock.Rows {
	return pgxmock.NewRows(payoutTestColumns()).AddRow(
		p.ID, p.Reference, p.MerchantID, p.Amount, p.Currency, p.Status, p.Environment,
		p.Bank.BankCode, p.Bank.AccountNumberEnc, p.Bank.AccountNumberMasked, p.Bank.AccountName,
		p.CreatedAt, p.ProcessedAt,
	)
}

func TestPayoutRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayoutRepo(mock)
	p := newTestPayout(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payouts").
		WithArgs(p.ID, p.Reference, p.MerchantID, p.Amount, p.Currency, p.Status, p.Environment,
			p.Bank.BankCode, p.Bank.AccountNumberEnc, p.Bank.AccountNumberMasked, p.Bank.AccountName,
			p.CreatedAt, p.ProcessedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_GetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayoutRepo(mock)
	p := newTestPayout(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM payouts WHERE reference").
		WithArgs(p.Reference).
		WillReturnRows(payoutRow(p))

	result, err := repo.GetByReference(context.Background(), p.Reference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, "******0031", result.Bank.AccountNumberMasked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_GetByReference_NotFoundIsNil(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayoutRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM payouts WHERE reference").
		WithArgs("PO-missing").
		WillReturnRows(pgxmock.NewRows(payoutTestColumns()))

	result, err := repo.GetByReference(context.Background(), "PO-missing")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_GetByReferenceForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayoutRepo(mock)
	p := newTestPayout(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM payouts WHERE reference .+ FOR UPDATE").
		WithArgs(p.Reference).
		WillReturnRows(payoutRow(p))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByReferenceForUpdate(context.Background(), tx, p.Reference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayoutRepo(mock)
	id := uuid.New()
	processedAt := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payouts SET status").
		WithArgs(domain.PayoutStatusSuccess, processedAt, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), tx, id, domain.PayoutStatusSuccess, processedAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_ListByMerchant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayoutRepo(mock)
	merchantID := uuid.New()
	p := newTestPayout(merchantID)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payouts WHERE merchant_id").
		WithArgs(merchantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	mock.ExpectQuery("SELECT .+ FROM payouts WHERE merchant_id .+ ORDER BY created_at DESC LIMIT").
		WithArgs(merchantID, 20, 0).
		WillReturnRows(payoutRow(p))

	payouts, total, err := repo.ListByMerchant(context.Background(), merchantID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, payouts, 1)
	assert.Equal(t, p.Reference, payouts[0].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}
