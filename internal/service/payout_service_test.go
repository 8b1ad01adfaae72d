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

type payoutTestDeps struct {
	svc          *PayoutServiceImpl
	payoutRepo   *mocks.MockPayoutRepository
	merchantRepo *mocks.MockMerchantRepository
	ledger       *mocks.MockLedgerService
	fiatGateway  *mocks.MockFiatGateway
	transactor   *mocks.MockDBTransactor
	encryption   *mocks.MockEncryptionService
	audit        *mocks.MockAuditService
	ctrl         *gomock.Controller
}

func setupPayoutService(t *testing.T) *payoutTestDeps {
	ctrl := gomock.NewController(t)
	d := &payoutTestDeps{
		payoutRepo:   mocks.NewMockPayoutRepository(ctrl),
		merchantRepo: mocks.NewMockMerchantRepository(ctrl),
		ledger:       mocks.NewMockLedgerService(ctrl),
		fiatGateway:  mocks.NewMockFiatGateway(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
		encryption:   mocks.NewMockEncryptionService(ctrl),
		audit:        mocks.NewMockAuditService(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewPayoutService(
		d.payoutRepo, d.merchantRepo, d.ledger, d.fiatGateway,
		d.transactor, d.encryption, d.audit,
		"https://gateway.example", zerolog.Nop(),
	)
	return d
}

func payoutMerchant(id uuid.UUID) *domain.Merchant {
	return &domain.Merchant{
		ID:                id,
		BusinessName:      "Acme Store",
		Enabled:           true,
		KYCStatus:         domain.KYCStatusApproved,
		Environment:       domain.EnvironmentLive,
		BankCode:          "044",
		BankAccountNumber: "enc_0690000031",
		BankAccountName:   "ACME STORES LTD",
	}
}

func TestPayoutService_RequestPayout_Success(t *testing.T) {
	d := setupPayoutService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	tx := &mockTx{}

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(payoutMerchant(merchantID), nil)
	d.encryption.EXPECT().Decrypt("enc_0690000031").Return("0690000031", nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledger.EXPECT().ReserveAvailable(ctx, tx, merchantID, "NGN", decEq("5000")).Return(nil)
	d.payoutRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, p *domain.Payout) error {
			assert.Equal(t, domain.PayoutStatusPending, p.Status)
			assert.Equal(t, domain.EnvironmentLive, p.Environment)
			assert.Contains(t, p.Reference, domain.PayoutReferencePrefix)
			assert.Equal(t, "044", p.Bank.BankCode)
			assert.Equal(t, "enc_0690000031", p.Bank.AccountNumberEnc)
			assert.Equal(t, "******0031", p.Bank.AccountNumberMasked)
			return nil
		})
	d.audit.EXPECT().Record(ctx, gomock.Any())
	d.fiatGateway.EXPECT().InitiateTransfer(ctx, domain.EnvironmentLive, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.Environment, req ports.InitiateTransferRequest) error {
			assert.Equal(t, "0690000031", req.AccountNumber)
			assert.Equal(t, "https://gateway.example/webhooks/flutterwave/transfers", req.CallbackURL)
			return nil
		})

	payout, err := d.svc.RequestPayout(ctx, ports.PayoutRequest{
		MerchantID: merchantID,
		Amount:     dec("5000"),
		Currency:   "NGN",
		ClientIP:   "1.2.3.4",
	})
	require.NoError(t, err)
	require.NotNil(t, payout)
	assert.Equal(t, domain.PayoutStatusPending, payout.Status)
}

func TestPayoutService_RequestPayout_SyncRejectionReleasesReservation(t *testing.T) {
	d := setupPayoutService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	payoutID := uuid.New()
	createTx := &mockTx{}
	failTx := &mockTx{}

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(payoutMerchant(merchantID), nil)
	d.encryption.EXPECT().Decrypt("enc_0690000031").Return("0690000031", nil)
	d.transactor.EXPECT().Begin(ctx).Return(createTx, nil)
	d.ledger.EXPECT().ReserveAvailable(ctx, createTx, merchantID, "NGN", decEq("5000")).Return(nil)
	var reference string
	d.payoutRepo.EXPECT().Create(ctx, createTx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, p *domain.Payout) error {
			p.ID = payoutID
			reference = p.Reference
			return nil
		})
	d.audit.EXPECT().Record(ctx, gomock.Any())
	d.fiatGateway.EXPECT().InitiateTransfer(ctx, domain.EnvironmentLive, gomock.Any()).
		Return(errors.New("invalid bank code"))

	d.transactor.EXPECT().Begin(ctx).Return(failTx, nil)
	d.payoutRepo.EXPECT().GetByReferenceForUpdate(ctx, failTx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, ref string) (*domain.Payout, error) {
			assert.Equal(t, reference, ref)
			return &domain.Payout{
				ID:         payoutID,
				Reference:  ref,
				MerchantID: merchantID,
				Amount:     dec("5000"),
				Currency:   "NGN",
				Status:     domain.PayoutStatusPending,
			}, nil
		})
	d.payoutRepo.EXPECT().UpdateStatus(ctx, failTx, payoutID, domain.PayoutStatusFailed, gomock.Any()).Return(nil)
	d.ledger.EXPECT().ReleaseAvailable(ctx, failTx, merchantID, "NGN", decEq("5000")).Return(nil)

	_, err := d.svc.RequestPayout(ctx, ports.PayoutRequest{
		MerchantID: merchantID,
		Amount:     dec("5000"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_004", appErr.Code)
}

func TestPayoutService_RequestPayout_InsufficientFunds(t *testing.T) {
	d := setupPayoutService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	tx := &mockTx{}

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(payoutMerchant(merchantID), nil)
	d.encryption.EXPECT().Decrypt("enc_0690000031").Return("0690000031", nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledger.EXPECT().ReserveAvailable(ctx, tx, merchantID, "NGN", decEq("5000")).
		Return(apperror.ErrInsufficientFunds())

	_, err := d.svc.RequestPayout(ctx, ports.PayoutRequest{
		MerchantID: merchantID,
		Amount:     dec("5000"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_001", appErr.Code)
}

func TestPayoutService_RequestPayout_KYCNotApproved(t *testing.T) {
	d := setupPayoutService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	m := payoutMerchant(merchantID)
	m.KYCStatus = domain.KYCStatusPending

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(m, nil)

	_, err := d.svc.RequestPayout(ctx, ports.PayoutRequest{
		MerchantID: merchantID,
		Amount:     dec("5000"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_004", appErr.Code)
}

func TestPayoutService_RequestPayout_DisabledMerchant(t *testing.T) {
	d := setupPayoutService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	m := payoutMerchant(merchantID)
	m.Enabled = false

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(m, nil)

	_, err := d.svc.RequestPayout(ctx, ports.PayoutRequest{
		MerchantID: merchantID,
		Amount:     dec("5000"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestPayoutService_RequestPayout_MissingBankDetails(t *testing.T) {
	d := setupPayoutService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	m := payoutMerchant(merchantID)
	m.BankAccountNumber = ""

	d.merchantRepo.EXPECT().GetByID(ctx, merchantID).Return(m, nil)

	_, err := d.svc.RequestPayout(ctx, ports.PayoutRequest{
		MerchantID: merchantID,
		Amount:     dec("5000"),
		Currency:   "NGN",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_005", appErr.Code)
}

func TestMaskAccountNumber(t *testing.T) {
	assert.Equal(t, "******0031", maskAccountNumber("0690000031"))
	assert.Equal(t, "1234", maskAccountNumber("1234"))
	assert.Equal(t, "*5678", maskAccountNumber("45678"))
}
