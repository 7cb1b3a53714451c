package handler

import (
	"custodial-wallet-backend/internal/adapter/http/dto"
	"custodial-wallet-backend/internal/core/ports"
	"custodial-wallet-backend/pkg/apperror"
	"custodial-wallet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet read endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetWallets handles GET /api/v1/wallets. The first call for a new user
// provisions both wallets, so the response is never empty.
func (h *WalletHandler) GetWallets(c *gin.Context) {
	userID, phone, ok := userFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	if _, _, err := h.walletSvc.EnsureWallets(c.Request.Context(), userID, phone); err != nil {
		response.Error(c, err)
		return
	}

	wallets, err := h.walletSvc.GetBalances(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, len(wallets))
	for i := range wallets {
		items[i] = dto.FromWallet(&wallets[i])
	}
	response.OK(c, items)
}
