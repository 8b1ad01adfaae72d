package handler

import (
	"time"

	"merchant-payment-gateway/internal/adapter/http/dto"
	"merchant-payment-gateway/internal/adapter/http/middleware"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/pkg/apperror"
	"merchant-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment initiation endpoints.
type PaymentHandler struct {
	paymentSvc   ports.PaymentService
	reconcileSvc ports.ReconcileService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService, reconcileSvc ports.ReconcileService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, reconcileSvc: reconcileSvc}
}

// InitiateFiatPayment handles POST /api/v1/payments.
func (h *PaymentHandler) InitiateFiatPayment(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.FiatPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.paymentSvc.InitiateFiatPayment(c.Request.Context(), ports.InitiateFiatPaymentRequest{
		MerchantID:    merchantID.(uuid.UUID),
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		RedirectURL:   req.RedirectURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// InitiateCryptoPayment handles POST /api/v1/payments/crypto.
func (h *PaymentHandler) InitiateCryptoPayment(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CryptoPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.paymentSvc.InitiateCryptoPayment(c.Request.Context(), ports.InitiateCryptoPaymentRequest{
		MerchantID: merchantID.(uuid.UUID),
		Amount:     req.Amount,
		Currency:   req.Currency,
		Network:    req.Network,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// ConfirmTransaction handles POST /api/v1/payments/confirm, the manual
// settlement path. It runs through the same guarded transition as webhooks.
func (h *PaymentHandler) ConfirmTransaction(c *gin.Context) {
	var req dto.ConfirmTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	status, err := h.reconcileSvc.ConfirmTransaction(c.Request.Context(), req.Reference, domain.EventOutcome(req.Outcome))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"reference": req.Reference, "result": string(status)})
}

// toTransactionResponse converts domain.Transaction to its DTO.
func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		Reference:      t.Reference,
		Amount:         t.Amount,
		Fee:            t.Fee,
		NetAmount:      t.NetAmount,
		Currency:       t.Currency,
		PaymentType:    string(t.PaymentType),
		Status:         string(t.Status),
		CheckoutURL:    t.CheckoutURL,
		DepositAddress: t.DepositAddress,
		Network:        t.Network,
		TxHash:         t.TxHash,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
	if t.SettledAt != nil {
		s := t.SettledAt.Format(time.RFC3339)
		resp.SettledAt = &s
	}
	return resp
}
