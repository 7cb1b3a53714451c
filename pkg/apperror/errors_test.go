package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("TRF_004", "Insufficient funds", http.StatusPaymentRequired),
			expected: "[TRF_004] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("TRF_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestTransferErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidRequest", ErrInvalidRequest("amount must be positive"), "TRF_001", 400},
		{"SenderWalletNotFound", ErrSenderWalletNotFound("NGN"), "TRF_002", 404},
		{"ReceiverNotFound", ErrReceiverNotFound(), "TRF_003", 404},
		{"InsufficientFunds", ErrInsufficientFunds(), "TRF_004", 402},
		{"WalletNotActive", ErrWalletNotActive(), "TRF_005", 403},
		{"TransactionNotFound", ErrTransactionNotFound(), "TRF_006", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthError(t *testing.T) {
	err := ErrUnauthenticated()
	assert.Equal(t, "AUTH_001", err.Code)
	assert.Equal(t, 401, err.HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")

	intErr := InternalError(inner)
	assert.Equal(t, "SYS_001", intErr.Code)
	assert.Equal(t, 500, intErr.HTTPStatus)
	assert.True(t, errors.Is(intErr, inner))

	conflictErr := ErrStorageConflict(inner)
	assert.Equal(t, "SYS_002", conflictErr.Code)
	assert.Equal(t, 503, conflictErr.HTTPStatus)
}

func TestDuplicateWalletError(t *testing.T) {
	inner := fmt.Errorf("23505")
	err := ErrDuplicateWallet(inner)
	assert.Equal(t, "WAL_001", err.Code)
	assert.Equal(t, 409, err.HTTPStatus)
	assert.True(t, errors.Is(err, inner))
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestSenderWalletNotFound_NamesCurrency(t *testing.T) {
	err := ErrSenderWalletNotFound("SUI")
	assert.Contains(t, err.Message, "SUI")
}
