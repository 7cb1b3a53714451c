package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrUnauthenticated() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Transfer Business Logic (TRF) ----

func ErrInvalidRequest(message string) *AppError {
	return New("TRF_001", message, http.StatusBadRequest)
}

func ErrSenderWalletNotFound(currency string) *AppError {
	return New("TRF_002", fmt.Sprintf("Sender has no %s wallet", currency), http.StatusNotFound)
}

func ErrReceiverNotFound() *AppError {
	return New("TRF_003", "Receiver account number or address not found", http.StatusNotFound)
}

func ErrInsufficientFunds() *AppError {
	return New("TRF_004", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrWalletNotActive() *AppError {
	return New("TRF_005", "Wallet is suspended or closed", http.StatusForbidden)
}

func ErrTransactionNotFound() *AppError {
	return New("TRF_006", "Transaction not found", http.StatusNotFound)
}

// ---- Wallet Provisioning (WAL) ----

func ErrDuplicateWallet(err error) *AppError {
	return Wrap("WAL_001", "Wallet already exists for user and currency", http.StatusConflict, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrStorageConflict signals a balance-mutation race that exhausted its
// retry budget. The whole transfer is safe to retry.
func ErrStorageConflict(err error) *AppError {
	return Wrap("SYS_002", "Transfer could not be completed, please retry", http.StatusServiceUnavailable, err)
}

// Validation returns a TRF_001-style validation error.
func Validation(message string) *AppError {
	return New("TRF_001", message, http.StatusBadRequest)
}
