package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, reference, sender_wallet_id, receiver_wallet_id, amount,
		currency_kind, currency, status, initiated_at, completed_at, receipt_ref`

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, reference, sender_wallet_id, receiver_wallet_id, amount,
		currency_kind, currency, status, initiated_at, completed_at, receipt_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Reference, t.SenderWalletID, t.ReceiverWalletID, t.Amount,
		string(t.Currency.Kind), t.Currency.Code, string(t.Status),
		t.InitiatedAt, t.CompletedAt, t.ReceiptRef,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByReference fetches a transaction by its unique reference.
func (r *TransactionRepo) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, reference))
}

// ListByWallets pages through transactions touching any of the given
// wallets, newest first.
func (r *TransactionRepo) ListByWallets(ctx context.Context, walletIDs []uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	countQuery := `SELECT COUNT(*) FROM transactions
		WHERE sender_wallet_id = ANY($1) OR receiver_wallet_id = ANY($1)`

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, walletIDs).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE sender_wallet_id = ANY($1) OR receiver_wallet_id = ANY($1)
		ORDER BY initiated_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletIDs, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list transactions: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txns, total, nil
}

func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func scanTransactionRow(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var kind, code, status string
	err := row.Scan(
		&t.ID, &t.Reference, &t.SenderWalletID, &t.ReceiverWalletID, &t.Amount,
		&kind, &code, &status, &t.InitiatedAt, &t.CompletedAt, &t.ReceiptRef,
	)
	if err != nil {
		return nil, err
	}
	t.Currency = domain.Currency{Kind: domain.CurrencyKind(kind), Code: code}
	t.Status = domain.TransactionStatus(status)
	return t, nil
}
