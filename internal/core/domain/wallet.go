package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletStatus represents the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

// Storage-level sentinel errors surfaced by wallet repositories.
var (
	// ErrDuplicateWallet signals a unique-constraint violation on
	// (user_id, currency). Provisioning recovers by re-reading.
	ErrDuplicateWallet = errors.New("wallet already exists for user and currency")
	// ErrInsufficientBalance signals a balance adjustment that would
	// drive the balance negative.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

// Wallet holds one user's balance in a single currency.
// At most one wallet exists per (user, currency). Address is a 10-digit
// account number for fiat wallets and a generated address string for
// crypto wallets. Balance is never negative.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Address   string          `json:"address"`
	Status    WalletStatus    `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanTransact reports whether the wallet may send or receive funds.
func (w *Wallet) CanTransact() bool {
	return w.Status == WalletStatusActive
}
