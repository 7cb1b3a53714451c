package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a transfer.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	// TransactionStatusFailed is reserved for post-commit reconciliation.
	// Pre-flight validation failures never persist a row.
	TransactionStatusFailed TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger entry for a settled transfer.
// Reference is unique across all transactions. Currency is the settlement
// currency, determined by the receiver wallet.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	Reference        string            `json:"reference"`
	SenderWalletID   uuid.UUID         `json:"sender_wallet_id"`
	ReceiverWalletID uuid.UUID         `json:"receiver_wallet_id"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         Currency          `json:"currency"`
	Status           TransactionStatus `json:"status"`
	InitiatedAt      time.Time         `json:"initiated_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	ReceiptRef       *string           `json:"receipt_ref,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// NewTransactionReference generates a unique transfer reference.
func NewTransactionReference() string {
	return "TXN-" + randomHex(12)
}

// NewReceiptReference generates a receipt reference for a settled transfer.
func NewReceiptReference() string {
	return "RCPT-" + randomHex(12)
}

func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a UUID.
		return uuid.NewString()[:n]
	}
	return hex.EncodeToString(b)[:n]
}
