package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, user_id, kind, currency, balance, address, status, created_at, updated_at`

// Create inserts a new wallet. A (user_id, currency) unique violation is
// reported as domain.ErrDuplicateWallet so provisioning can recover.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, kind, currency, balance, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, string(w.Currency.Kind), w.Currency.Code,
		w.Balance, w.Address, string(w.Status), w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert wallet: %w", domain.ErrDuplicateWallet)
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserAndCurrency fetches a wallet by owner and currency code (non-locking read).
func (r *WalletRepo) GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currencyCode string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND currency = $2`
	return scanWallet(r.pool.QueryRow(ctx, query, userID, currencyCode))
}

// GetByAccountNumber resolves a fiat wallet by its 10-digit account number.
func (r *WalletRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE address = $1 AND kind = $2`
	return scanWallet(r.pool.QueryRow(ctx, query, accountNumber, string(domain.KindFiat)))
}

// GetByAddress resolves a crypto wallet by its generated address.
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE address = $1 AND kind = $2`
	return scanWallet(r.pool.QueryRow(ctx, query, address, string(domain.KindCrypto)))
}

// ListByUser fetches all wallets owned by a user.
func (r *WalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w, err := scanWalletRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list wallets: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, id))
}

// AdjustBalance applies delta to a wallet's balance within a transaction.
// The WHERE clause guards non-negativity: an overdrawing debit matches no
// row and is reported as domain.ErrInsufficientBalance.
func (r *WalletRepo) AdjustBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) error {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= 0`

	tag, err := tx.Exec(ctx, query, delta, walletID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adjust balance on wallet %s: %w", walletID, domain.ErrInsufficientBalance)
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w, err := scanWalletRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func scanWalletRow(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var kind, code, status string
	err := row.Scan(
		&w.ID, &w.UserID, &kind, &code, &w.Balance,
		&w.Address, &status, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Currency = domain.Currency{Kind: domain.CurrencyKind(kind), Code: code}
	w.Status = domain.WalletStatus(status)
	return w, nil
}
