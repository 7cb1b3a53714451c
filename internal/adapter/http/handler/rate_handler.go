package handler

import (
	"strings"

	"custodial-wallet-backend/internal/adapter/http/dto"
	"custodial-wallet-backend/internal/core/ports"
	"custodial-wallet-backend/pkg/apperror"
	"custodial-wallet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateHandler handles public exchange-rate queries.
type RateHandler struct {
	rateSvc ports.RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateSvc ports.RateService) *RateHandler {
	return &RateHandler{rateSvc: rateSvc}
}

// GetRate handles GET /api/v1/rates/:pair. The pair uses a dash on the wire
// ("SUI-NGN") since a slash cannot appear in a path segment.
func (h *RateHandler) GetRate(c *gin.Context) {
	pair := c.Param("pair")
	symbol := strings.ReplaceAll(strings.ToUpper(pair), "-", "/")

	rate, ok := h.rateSvc.RateInfo(symbol)
	if !ok {
		response.Error(c, apperror.Validation("unknown currency pair"))
		return
	}

	response.OK(c, dto.FromRate(rate))
}
