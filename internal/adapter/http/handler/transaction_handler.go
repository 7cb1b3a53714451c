package handler

import (
	"strconv"

	"custodial-wallet-backend/internal/adapter/http/dto"
	"custodial-wallet-backend/internal/adapter/http/middleware"
	"custodial-wallet-backend/internal/core/ports"
	"custodial-wallet-backend/pkg/apperror"
	"custodial-wallet-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxListPageSize caps page_size so the reported pagination matches what
// the service actually returns.
const maxListPageSize = 100

// TransactionHandler handles transfer endpoints.
type TransactionHandler struct {
	transferSvc ports.TransferService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transferSvc ports.TransferService) *TransactionHandler {
	return &TransactionHandler{transferSvc: transferSvc}
}

// Transfer handles POST /api/v1/transactions.
func (h *TransactionHandler) Transfer(c *gin.Context) {
	userID, phone, ok := userFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:           userID,
		SenderPhone:        phone,
		ReceiverIdentifier: req.Receiver,
		Amount:             req.Amount,
		Reference:          req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransferResult(result))
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.transferSvc.GetTransaction(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// ListTransactions handles GET /api/v1/transactions.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}

	txns, total, err := h.transferSvc.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, len(txns))
	for i := range txns {
		items[i] = dto.FromTransaction(&txns[i])
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// userFromContext reads the identity resolved by the JWT middleware.
func userFromContext(c *gin.Context) (uuid.UUID, string, bool) {
	raw, exists := c.Get(middleware.CtxUserID)
	if !exists {
		return uuid.Nil, "", false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	phone, _ := c.Get(middleware.CtxUserPhone)
	phoneStr, _ := phone.(string)
	return userID, phoneStr, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
