package postgres

import (
	"context"
	"testing"
	"time"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(merchantID uuid.UUID) *domain.Transaction {
	return &domain.Transaction{
		ID:          uuid.New(),
		Reference:   domain.NewFiatReference(),
		MerchantID:  merchantID,
		Amount:      decimal.RequireFromString("10000"),
		Fee:         decimal.RequireFromString("150"),
		NetAmount:   decimal.RequireFromString("9850"),
		Currency:    "NGN",
		PaymentType: domain.PaymentTypeFiat,
		Provider:    domain.ProviderFlutterwave,
		Environment: domain.EnvironmentLive,
		Status:      domain.TransactionStatusPending,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transactionTestColumns() []string {
	return []string{
		"id", "reference", "merchant_id", "amount", "fee", "net_amount", "currency",
		"payment_type", "provider", "environment", "status", "settled",
		"checkout_url", "deposit_address", "network", "tx_hash", "metadata", "created_at", "settled_at",
	}
}

func transactionRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(transactionTestColumns()).AddRow(
		t.ID, t.Reference, t.MerchantID, t.Amount, t.Fee, t.NetAmount, t.Currency,
		t.PaymentType, t.Provider, t.Environment, t.Status, t.Settled,
		t.CheckoutURL, t.DepositAddress, t.Network, t.TxHash, t.Metadata,
		t.CreatedAt, t.SettledAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.Reference, txn.MerchantID, txn.Amount, txn.Fee, txn.NetAmount, txn.Currency,
			txn.PaymentType, txn.Provider, txn.Environment, txn.Status, txn.Settled,
			txn.CheckoutURL, txn.DepositAddress, txn.Network, txn.TxHash, txn.Metadata,
			txn.CreatedAt, txn.SettledAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE reference").
		WithArgs(txn.Reference).
		WillReturnRows(transactionRow(txn))

	result, err := repo.GetByReference(context.Background(), txn.Reference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.True(t, result.NetAmount.Equal(txn.NetAmount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByReference_NotFoundIsNil(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE reference").
		WithArgs("TX-missing").
		WillReturnRows(pgxmock.NewRows(transactionTestColumns()))

	result, err := repo.GetByReference(context.Background(), "TX-missing")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByReferenceForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE reference .+ FOR UPDATE").
		WithArgs(txn.Reference).
		WillReturnRows(transactionRow(txn))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByReferenceForUpdate(context.Background(), tx, txn.Reference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListPendingByDepositAddressForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	address := "0xDEPOSIT"
	network := "TRC20"

	txn := newTestTransaction(uuid.New())
	txn.Reference = domain.NewCryptoReference()
	txn.PaymentType = domain.PaymentTypeCrypto
	txn.Provider = domain.ProviderBybit
	txn.Currency = "USDT"
	txn.DepositAddress = &address
	txn.Network = &network

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM transactions\\s+WHERE deposit_address .+ LIMIT 2 FOR UPDATE").
		WithArgs(address).
		WillReturnRows(transactionRow(txn))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	txns, err := repo.ListPendingByDepositAddressForUpdate(context.Background(), tx, address)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.Reference, txns[0].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateRailDetails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())
	checkoutURL := "https://checkout.flutterwave.com/pay/abc"
	txn.CheckoutURL = &checkoutURL

	mock.ExpectExec("UPDATE transactions SET checkout_url").
		WithArgs(txn.CheckoutURL, txn.DepositAddress, txn.Network, txn.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateRailDetails(context.Background(), txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Settle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()
	txHash := "0xdeadbeef"
	settledAt := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET status .+ settled = TRUE").
		WithArgs(domain.TransactionStatusSuccess, &txHash, settledAt, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Settle(context.Background(), tx, id, domain.TransactionStatusSuccess, &txHash, settledAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Settle_MissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()
	settledAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET status .+ settled = TRUE").
		WithArgs(domain.TransactionStatusFailed, (*string)(nil), settledAt, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Settle(context.Background(), tx, id, domain.TransactionStatusFailed, nil, settledAt)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_WithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	merchantID := uuid.New()
	txn := newTestTransaction(merchantID)
	status := domain.TransactionStatusPending

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions WHERE merchant_id").
		WithArgs(merchantID, status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE merchant_id .+ ORDER BY created_at DESC LIMIT").
		WithArgs(merchantID, status, 20, 0).
		WillReturnRows(transactionRow(txn))

	txns, total, err := repo.List(context.Background(), ports.TransactionListParams{
		MerchantID: merchantID,
		Status:     &status,
		Page:       1,
		PageSize:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.Reference, txns[0].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}
