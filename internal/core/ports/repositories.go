package ports

import (
	"context"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	// Create inserts a wallet. Returns domain.ErrDuplicateWallet (wrapped)
	// when the (user_id, currency) unique constraint is violated.
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currencyCode string) (*domain.Wallet, error)
	// GetByAccountNumber resolves a fiat wallet by its 10-digit account number.
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error)
	// GetByAddress resolves a crypto wallet by its generated address.
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// AdjustBalance applies delta (positive or negative) to a wallet balance.
	// The update is guarded so the balance never goes negative; a debit that
	// would overdraw returns domain.ErrInsufficientBalance (wrapped).
	AdjustBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) error
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// ListByWallets pages through transactions where any of walletIDs is
	// sender or receiver, newest first. Returns the page and the total count.
	ListByWallets(ctx context.Context, walletIDs []uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error)
}

// RateRepository persists the last known exchange rate per symbol.
type RateRepository interface {
	Get(ctx context.Context, symbol string) (*domain.ExchangeRate, error)
	Upsert(ctx context.Context, rate *domain.ExchangeRate) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
