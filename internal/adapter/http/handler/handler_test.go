package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"merchant-payment-gateway/internal/adapter/http/dto"
	"merchant-payment-gateway/internal/adapter/http/middleware"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/internal/core/ports/mocks"
	"merchant-payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// --- Payment Handler ---

func TestInitiateFiatPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	paymentSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(paymentSvc, mocks.NewMockReconcileService(ctrl))

	merchantID := uuid.New()
	checkoutURL := "https://checkout.flutterwave.com/pay/abc"
	paymentSvc.EXPECT().InitiateFiatPayment(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req ports.InitiateFiatPaymentRequest) (*domain.Transaction, error) {
			assert.Equal(t, merchantID, req.MerchantID)
			assert.True(t, req.Amount.Equal(decimal.RequireFromString("10000")))
			return &domain.Transaction{
				Reference:   "TX-abc",
				MerchantID:  merchantID,
				Amount:      req.Amount,
				Currency:    "NGN",
				PaymentType: domain.PaymentTypeFiat,
				Status:      domain.TransactionStatusPending,
				CheckoutURL: &checkoutURL,
			}, nil
		})

	body, _ := json.Marshal(dto.FiatPaymentRequest{
		Amount:        decimal.RequireFromString("10000"),
		Currency:      "NGN",
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Buyer",
	})
	c, w := testContext(t, http.MethodPost, "/api/v1/payments", body)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.InitiateFiatPayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, "TX-abc", data["reference"])
	assert.Equal(t, checkoutURL, data["checkout_url"])
	assert.Equal(t, "PENDING", data["status"])
}

func TestInitiateFiatPayment_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockPaymentService(ctrl), mocks.NewMockReconcileService(ctrl))

	c, w := testContext(t, http.MethodPost, "/api/v1/payments", []byte(`{}`))
	c.Set(middleware.CtxMerchantID, uuid.New())

	h.InitiateFiatPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitiateCryptoPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	paymentSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(paymentSvc, mocks.NewMockReconcileService(ctrl))

	merchantID := uuid.New()
	address := "TFiuq1PHu2A5D2cK5ZoMhvSqikZdwQxTCo"
	network := "TRC20"
	paymentSvc.EXPECT().InitiateCryptoPayment(gomock.Any(), gomock.Any()).Return(&domain.Transaction{
		Reference:      "CR-abc",
		MerchantID:     merchantID,
		Currency:       "USDT",
		PaymentType:    domain.PaymentTypeCrypto,
		Status:         domain.TransactionStatusPending,
		DepositAddress: &address,
		Network:        &network,
	}, nil)

	body, _ := json.Marshal(dto.CryptoPaymentRequest{
		Amount:   decimal.RequireFromString("120"),
		Currency: "USDT",
		Network:  "TRC20",
	})
	c, w := testContext(t, http.MethodPost, "/api/v1/payments/crypto", body)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.InitiateCryptoPayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, address, data["deposit_address"])
}

func TestConfirmTransaction_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reconcileSvc := mocks.NewMockReconcileService(ctrl)
	h := NewPaymentHandler(mocks.NewMockPaymentService(ctrl), reconcileSvc)

	reconcileSvc.EXPECT().ConfirmTransaction(gomock.Any(), "TX-abc", domain.EventOutcomeSuccess).
		Return(domain.ReconcileOK, nil)

	body, _ := json.Marshal(dto.ConfirmTransactionRequest{Reference: "TX-abc", Outcome: "SUCCESS"})
	c, w := testContext(t, http.MethodPost, "/api/v1/payments/confirm", body)

	h.ConfirmTransaction(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, "ok", data["result"])
}

func TestConfirmTransaction_RejectsUnknownOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockPaymentService(ctrl), mocks.NewMockReconcileService(ctrl))

	body := []byte(`{"reference":"TX-abc","outcome":"REVERSED"}`)
	c, w := testContext(t, http.MethodPost, "/api/v1/payments/confirm", body)

	h.ConfirmTransaction(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Payout Handler ---

func TestRequestPayout_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	payoutSvc := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(payoutSvc, mocks.NewMockReportingService(ctrl))

	merchantID := uuid.New()
	payoutSvc.EXPECT().RequestPayout(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req ports.PayoutRequest) (*domain.Payout, error) {
			assert.Equal(t, merchantID, req.MerchantID)
			return &domain.Payout{
				Reference:  "PO-abc",
				MerchantID: merchantID,
				Amount:     req.Amount,
				Currency:   "NGN",
				Status:     domain.PayoutStatusPending,
				Bank: domain.BankSnapshot{
					BankCode:            "044",
					AccountNumberMasked: "******0031",
					AccountName:         "Forrest Green",
				},
			}, nil
		})

	body, _ := json.Marshal(dto.PayoutRequest{
		Amount:   decimal.RequireFromString("5000"),
		Currency: "NGN",
	})
	c, w := testContext(t, http.MethodPost, "/api/v1/payouts", body)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.RequestPayout(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, "PO-abc", data["reference"])
	assert.Equal(t, "******0031", data["account_number_masked"])
	// The plaintext and encrypted account numbers never leave the service.
	_, leaked := data["account_number_enc"]
	assert.False(t, leaked)
}

func TestRequestPayout_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	payoutSvc := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(payoutSvc, mocks.NewMockReportingService(ctrl))

	payoutSvc.EXPECT().RequestPayout(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientFunds())

	body, _ := json.Marshal(dto.PayoutRequest{
		Amount:   decimal.RequireFromString("1000000"),
		Currency: "NGN",
	})
	c, w := testContext(t, http.MethodPost, "/api/v1/payouts", body)
	c.Set(middleware.CtxMerchantID, uuid.New())

	h.RequestPayout(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAY_001", resp["error_code"])
}

// --- Wallet Handler ---

func TestGetWalletSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reportingSvc := mocks.NewMockReportingService(ctrl)
	h := NewWalletHandler(reportingSvc)

	merchantID := uuid.New()
	reportingSvc.EXPECT().GetWalletSnapshot(gomock.Any(), merchantID).Return([]ports.WalletBalance{
		{Currency: "NGN", Available: decimal.RequireFromString("9850"), Pending: decimal.Zero},
	}, nil)

	c, w := testContext(t, http.MethodGet, "/api/v1/wallets", nil)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.GetWalletSnapshot(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	wallets := data["wallets"].([]any)
	require.Len(t, wallets, 1)
}

func TestListTransactions_PassesFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reportingSvc := mocks.NewMockReportingService(ctrl)
	h := NewWalletHandler(reportingSvc)

	merchantID := uuid.New()
	reportingSvc.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, merchantID, params.MerchantID)
			require.NotNil(t, params.Status)
			assert.Equal(t, domain.TransactionStatusSuccess, *params.Status)
			assert.Equal(t, 2, params.Page)
			return []domain.Transaction{{Reference: "TX-1"}}, 21, nil
		})

	c, w := testContext(t, http.MethodGet, "/api/v1/transactions?status=SUCCESS&page=2&page_size=20", nil)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(21), data["total"])
	assert.Equal(t, float64(2), data["total_pages"])
}
