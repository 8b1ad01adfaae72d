package handler

import (
	"merchant-payment-gateway/internal/adapter/http/middleware"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/pkg/apperror"
	"merchant-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// AssetHandler serves rail directory lookups: the fiat bank list and the
// crypto coin catalogue. Reads only; nothing here touches ledger state.
type AssetHandler struct {
	fiatGateway   ports.FiatGateway
	cryptoGateway ports.CryptoGateway
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(fiatGateway ports.FiatGateway, cryptoGateway ports.CryptoGateway) *AssetHandler {
	return &AssetHandler{fiatGateway: fiatGateway, cryptoGateway: cryptoGateway}
}

// ListBanks handles GET /api/v1/banks.
func (h *AssetHandler) ListBanks(c *gin.Context) {
	merchant, ok := contextMerchant(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	country := c.DefaultQuery("country", "NG")
	banks, err := h.fiatGateway.ListBanks(c.Request.Context(), merchant.Environment, country)
	if err != nil {
		response.Error(c, apperror.ErrProviderRejected("Flutterwave", err))
		return
	}

	response.OK(c, gin.H{"banks": banks})
}

// ListCoins handles GET /api/v1/assets/coins.
func (h *AssetHandler) ListCoins(c *gin.Context) {
	merchant, ok := contextMerchant(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	coins, err := h.cryptoGateway.GetCoinInfo(c.Request.Context(), merchant.Environment)
	if err != nil {
		response.Error(c, apperror.ErrProviderRejected("Bybit", err))
		return
	}

	response.OK(c, gin.H{"coins": coins})
}

func contextMerchant(c *gin.Context) (*domain.Merchant, bool) {
	v, ok := c.Get(middleware.CtxMerchantKey)
	if !ok {
		return nil, false
	}
	merchant, ok := v.(*domain.Merchant)
	return merchant, ok
}
