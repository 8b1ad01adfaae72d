package handler

import (
	"strconv"
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

// PayoutHandler handles payout endpoints.
type PayoutHandler struct {
	payoutSvc    ports.PayoutService
	reportingSvc ports.ReportingService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutSvc ports.PayoutService, reportingSvc ports.ReportingService) *PayoutHandler {
	return &PayoutHandler{payoutSvc: payoutSvc, reportingSvc: reportingSvc}
}

// RequestPayout handles POST /api/v1/payouts.
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	payout, err := h.payoutSvc.RequestPayout(c.Request.Context(), ports.PayoutRequest{
		MerchantID: merchantID.(uuid.UUID),
		Amount:     req.Amount,
		Currency:   req.Currency,
		ClientIP:   c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPayoutResponse(payout))
}

// ListPayouts handles GET /api/v1/payouts.
func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	payouts, total, err := h.reportingSvc.ListPayouts(c.Request.Context(), merchantID.(uuid.UUID), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PayoutResponse, 0, len(payouts))
	for i := range payouts {
		items = append(items, toPayoutResponse(&payouts[i]))
	}

	response.OK(c, dto.PayoutListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// toPayoutResponse converts domain.Payout to its DTO. Only the masked
// account number is ever exposed.
func toPayoutResponse(p *domain.Payout) dto.PayoutResponse {
	resp := dto.PayoutResponse{
		Reference:           p.Reference,
		Amount:              p.Amount,
		Currency:            p.Currency,
		Status:              string(p.Status),
		BankCode:            p.Bank.BankCode,
		AccountNumberMasked: p.Bank.AccountNumberMasked,
		AccountName:         p.Bank.AccountName,
		CreatedAt:           p.CreatedAt.Format(time.RFC3339),
	}
	if p.ProcessedAt != nil {
		s := p.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}
