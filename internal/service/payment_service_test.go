package service

import (
	"context"
	"errors"
	"testing"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/internal/core/ports/mocks"
	"merchant-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type paymentTestDeps struct {
	svc           *PaymentServiceImpl
	txnRepo       *mocks.MockTransactionRepository
	merchantRepo  *mocks.MockMerchantRepository
	fiatGateway   *mocks.MockFiatGateway
	cryptoGateway *mocks.MockCryptoGateway
	transactor    *mocks.MockDBTransactor
	ctrl          *gomock.Controller
}

func setupPaymentService(t *testing.T) *paymentTestDeps {
	ctrl := gomock.NewController(t)
	d := &paymentTestDeps{
		txnRepo:       mocks.NewMockTransactionRepository(ctrl),
		merchantRepo:  mocks.NewMockMerchantRepository(ctrl),
		fiatGateway:   mocks.NewMockFiatGateway(ctrl),
		cryptoGateway: mocks.NewMockCryptoGateway(ctrl),
		transactor:    mocks.NewMockDBTransactor(ctrl),
		ctrl:          ctrl,
	}
	d.svc = NewPaymentService(
		d.txnRepo, d.merchantRepo, d.fiatGateway, d.cryptoGateway,
		d.transactor, zerolog.Nop(),
	)
	return d
}

func liveMerchant(id uuid.UUID) *domain.Merchant {
	return &domain.Merchant{
		ID:           id,
		BusinessName: "Acme Store",
		Enabled:      true,
		KYCStatus:    domain.KYCStatusApproved,
		Environment:  domain.EnvironmentLive,
	}
}

func TestPaymentService_InitiateFiatPayment_Success(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(liveMerchant(merchantID), nil)
	d.txnRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, txn *domain.Transaction) error {
			assert.Equal(t, domain.TransactionStatusPending, txn.Status)
			assert.False(t, txn.Settled)
			assert.Equal(t, domain.PaymentTypeFiat, txn.PaymentType)
			assert.Equal(t, domain.ProviderFlutterwave, txn.Provider)
			assert.Equal(t, domain.EnvironmentLive, txn.Environment)
			assert.True(t, txn.Fee.Add(txn.NetAmount).Equal(txn.Amount))
			return nil
		})
	d.fiatGateway.EXPECT().InitializePayment(ctx, domain.EnvironmentLive, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.Environment, req ports.InitializePaymentRequest) (*ports.InitializePaymentResult, error) {
			assert.Contains(t, req.Reference, domain.FiatReferencePrefix)
			assert.Equal(t, "NGN", req.Currency)
			return &ports.InitializePaymentResult{CheckoutURL: "https://checkout.example/pay/abc"}, nil
		})
	d.txnRepo.EXPECT().UpdateRailDetails(ctx, gomock.Any()).Return(nil)

	txn, err := d.svc.InitiateFiatPayment(ctx, ports.InitiateFiatPaymentRequest{
		MerchantID:    merchantID,
		Amount:        dec("10000"),
		Currency:      "NGN",
		CustomerEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, txn)
	require.NotNil(t, txn.CheckoutURL)
	assert.Equal(t, "https://checkout.example/pay/abc", *txn.CheckoutURL)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestPaymentService_InitiateFiatPayment_GatewayRejectionSettlesFailed(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	txnID := uuid.New()
	tx := &mockTx{}

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(liveMerchant(merchantID), nil)
	var createdRef string
	d.txnRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, txn *domain.Transaction) error {
			txn.ID = txnID
			createdRef = txn.Reference
			return nil
		})
	d.fiatGateway.EXPECT().InitializePayment(ctx, domain.EnvironmentLive, gomock.Any()).
		Return(nil, errors.New("card declined upstream"))

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txnRepo.EXPECT().GetByReferenceForUpdate(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, ref string) (*domain.Transaction, error) {
			assert.Equal(t, createdRef, ref)
			return &domain.Transaction{
				ID:        txnID,
				Reference: ref,
				Status:    domain.TransactionStatusPending,
			}, nil
		})
	d.txnRepo.EXPECT().Settle(ctx, tx, txnID, domain.TransactionStatusFailed, nil, gomock.Any()).Return(nil)

	_, err := d.svc.InitiateFiatPayment(ctx, ports.InitiateFiatPaymentRequest{
		MerchantID: merchantID,
		Amount:     dec("10000"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_004", appErr.Code)
}

func TestPaymentService_InitiateFiatPayment_DisabledMerchant(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	m := liveMerchant(merchantID)
	m.Enabled = false

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(m, nil)

	_, err := d.svc.InitiateFiatPayment(ctx, ports.InitiateFiatPaymentRequest{
		MerchantID: merchantID,
		Amount:     dec("500"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestPaymentService_InitiateFiatPayment_InvalidAmount(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.InitiateFiatPayment(context.Background(), ports.InitiateFiatPaymentRequest{
		MerchantID: uuid.New(),
		Amount:     dec("0"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_002", appErr.Code)
}

func TestPaymentService_InitiateCryptoPayment_Success(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	m := liveMerchant(merchantID)
	m.Environment = domain.EnvironmentTest

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(m, nil)
	d.txnRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, txn *domain.Transaction) error {
			assert.Equal(t, domain.PaymentTypeCrypto, txn.PaymentType)
			assert.Equal(t, domain.ProviderBybit, txn.Provider)
			assert.Equal(t, domain.EnvironmentTest, txn.Environment)
			assert.Contains(t, txn.Reference, domain.CryptoReferencePrefix)
			return nil
		})
	d.cryptoGateway.EXPECT().GetDepositAddress(ctx, domain.EnvironmentTest, "USDT", "TRC20").
		Return(&ports.DepositAddress{Address: "TXYZdepositaddr", Network: "TRC20"}, nil)
	d.txnRepo.EXPECT().UpdateRailDetails(ctx, gomock.Any()).Return(nil)

	txn, err := d.svc.InitiateCryptoPayment(ctx, ports.InitiateCryptoPaymentRequest{
		MerchantID: merchantID,
		Amount:     dec("120"),
		Currency:   "USDT",
		Network:    "TRC20",
	})
	require.NoError(t, err)
	require.NotNil(t, txn.DepositAddress)
	assert.Equal(t, "TXYZdepositaddr", *txn.DepositAddress)
	require.NotNil(t, txn.Network)
	assert.Equal(t, "TRC20", *txn.Network)
}

func TestPaymentService_InitiateCryptoPayment_MissingNetwork(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.InitiateCryptoPayment(context.Background(), ports.InitiateCryptoPaymentRequest{
		MerchantID: uuid.New(),
		Amount:     dec("120"),
		Currency:   "USDT",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_005", appErr.Code)
}

func TestPaymentService_InitiateCryptoPayment_GatewayFailureSettlesFailed(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	txnID := uuid.New()
	tx := &mockTx{}

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(liveMerchant(merchantID), nil)
	d.txnRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, txn *domain.Transaction) error {
			txn.ID = txnID
			return nil
		})
	d.cryptoGateway.EXPECT().GetDepositAddress(ctx, domain.EnvironmentLive, "USDT", "TRC20").
		Return(nil, errors.New("exchange unavailable"))

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txnRepo.EXPECT().GetByReferenceForUpdate(ctx, tx, gomock.Any()).Return(&domain.Transaction{
		ID:     txnID,
		Status: domain.TransactionStatusPending,
	}, nil)
	d.txnRepo.EXPECT().Settle(ctx, tx, txnID, domain.TransactionStatusFailed, nil, gomock.Any()).Return(nil)

	_, err := d.svc.InitiateCryptoPayment(ctx, ports.InitiateCryptoPaymentRequest{
		MerchantID: merchantID,
		Amount:     dec("120"),
		Currency:   "USDT",
		Network:    "TRC20",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_004", appErr.Code)
}
