package dto

import (
	"time"

	"custodial-wallet-backend/internal/core/domain"
	"custodial-wallet-backend/internal/core/ports"

	"github.com/shopspring/decimal"
)

// TransferRequest is the request body for initiating a transfer.
// Receiver is either a 10-digit account number or a crypto address;
// the engine dispatches on shape. Reference is an optional client
// idempotency key.
type TransferRequest struct {
	Receiver  string          `json:"receiver" binding:"required,safe_id,max=100"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"omitempty,safe_id,max=100"`
}

// TransactionResponse is the wire form of a ledger entry.
type TransactionResponse struct {
	ID               string  `json:"id"`
	Reference        string  `json:"reference"`
	SenderWalletID   string  `json:"sender_wallet_id"`
	ReceiverWalletID string  `json:"receiver_wallet_id"`
	Amount           string  `json:"amount"`
	CurrencyKind     string  `json:"currency_kind"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	InitiatedAt      string  `json:"initiated_at"`
	CompletedAt      *string `json:"completed_at,omitempty"`
	ReceiptRef       *string `json:"receipt_ref,omitempty"`
}

// TransferResponse is the response body for a settled transfer.
type TransferResponse struct {
	Transaction  TransactionResponse `json:"transaction"`
	Counterparty string              `json:"counterparty"`
	ReceiptURL   string              `json:"receipt_url,omitempty"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// WalletResponse is the wire form of a wallet balance.
type WalletResponse struct {
	ID           string `json:"id"`
	CurrencyKind string `json:"currency_kind"`
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Address      string `json:"address"`
	Status       string `json:"status"`
}

// RateResponse is the response for an exchange-rate query.
type RateResponse struct {
	Symbol      string `json:"symbol"`
	Rate        string `json:"rate"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// FromTransaction converts a domain transaction to its wire form.
func FromTransaction(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               tx.ID.String(),
		Reference:        tx.Reference,
		SenderWalletID:   tx.SenderWalletID.String(),
		ReceiverWalletID: tx.ReceiverWalletID.String(),
		Amount:           tx.Amount.String(),
		CurrencyKind:     string(tx.Currency.Kind),
		Currency:         tx.Currency.Code,
		Status:           string(tx.Status),
		InitiatedAt:      tx.InitiatedAt.Format(time.RFC3339),
		ReceiptRef:       tx.ReceiptRef,
	}
	if tx.CompletedAt != nil {
		s := tx.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

// FromTransferResult converts an engine result to its wire form.
func FromTransferResult(result *ports.TransferResult) TransferResponse {
	return TransferResponse{
		Transaction:  FromTransaction(result.Transaction),
		Counterparty: result.Counterparty,
		ReceiptURL:   result.ReceiptURL,
	}
}

// FromWallet converts a domain wallet to its wire form.
func FromWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:           w.ID.String(),
		CurrencyKind: string(w.Currency.Kind),
		Currency:     w.Currency.Code,
		Balance:      w.Balance.String(),
		Address:      w.Address,
		Status:       string(w.Status),
	}
}

// FromRate converts a cached exchange rate to its wire form.
func FromRate(rate domain.ExchangeRate) RateResponse {
	resp := RateResponse{
		Symbol: rate.Symbol,
		Rate:   rate.Rate.String(),
	}
	if !rate.LastUpdated.IsZero() {
		resp.LastUpdated = rate.LastUpdated.Format(time.RFC3339)
	}
	return resp
}
