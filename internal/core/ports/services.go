package ports

import (
	"context"
	"time"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenService resolves bearer credentials to user identities. The wallet
// core consumes identity as an opaque capability; this is its only edge.
type TokenService interface {
	Generate(userID uuid.UUID, phone string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed bearer-token claims.
type TokenClaims struct {
	UserID uuid.UUID
	Phone  string
}

// IdempotencyCache is the Redis-layer idempotency check for client-supplied
// transfer references (fast path, best-effort).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// PriceFeed fetches the current fiat price of a crypto asset from an
// external provider.
type PriceFeed interface {
	FetchRate(ctx context.Context, asset, fiat string) (decimal.Decimal, error)
}

// --- Service Ports (Business Logic) ---

// WalletService owns wallet provisioning and read access.
type WalletService interface {
	// EnsureWallets lazily provisions the user's fiat and crypto wallets.
	// Idempotent and safe under concurrent invocation for the same user.
	EnsureWallets(ctx context.Context, userID uuid.UUID, phone string) (fiat *domain.Wallet, crypto *domain.Wallet, err error)
	GetBalances(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
}

// TransferService is the transaction engine: it resolves both parties,
// validates funds and settles the transfer atomically.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error)
}

// TransferRequest holds validated input for a transfer. SenderID and
// SenderPhone come from the resolved bearer token, never from the body.
type TransferRequest struct {
	SenderID           uuid.UUID
	SenderPhone        string
	ReceiverIdentifier string // 10-digit account number or crypto address
	Amount             decimal.Decimal
	Reference          string // optional client idempotency reference
}

// TransferResult is the settled transfer plus display data for the caller.
type TransferResult struct {
	Transaction  *domain.Transaction `json:"transaction"`
	Counterparty string              `json:"counterparty"`
	ReceiptURL   string              `json:"receipt_url"`
}

// RateService is the exchange-rate cache. Reads never block on network I/O
// and never fail: a tracked symbol always yields a usable rate.
type RateService interface {
	GetRate(symbol string) decimal.Decimal
	// RateInfo returns the full cached entry; ok is false for untracked symbols.
	RateInfo(symbol string) (domain.ExchangeRate, bool)
	Convert(amount decimal.Decimal, from, to domain.Currency) decimal.Decimal
	// Refresh fetches fresh rates for all tracked symbols. Failures are
	// logged and swallowed; the previous cached value is retained.
	Refresh(ctx context.Context)
}
