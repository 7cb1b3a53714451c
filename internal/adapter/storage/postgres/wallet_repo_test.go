package postgres

import (
	"context"
	"testing"
	"time"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pgconnUniqueViolation = pgconn.PgError{Code: uniqueViolation, ConstraintName: "wallets_user_id_currency_key"}

func newTestWallet(userID uuid.UUID) *domain.Wallet {
	return &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  domain.DefaultFiat,
		Balance:   decimal.NewFromInt(0),
		Address:   "8123456789",
		Status:    domain.WalletStatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func walletCols() []string {
	return []string{"id", "user_id", "kind", "currency", "balance", "address", "status", "created_at", "updated_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletCols()).AddRow(
		w.ID, w.UserID, string(w.Currency.Kind), w.Currency.Code, w.Balance.String(),
		w.Address, string(w.Status), w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.UserID, string(w.Currency.Kind), w.Currency.Code,
			w.Balance, w.Address, string(w.Status), w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_DuplicateMapsToSentinel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.UserID, string(w.Currency.Kind), w.Currency.Code,
			w.Balance, w.Address, string(w.Status), w.CreatedAt, w.UpdatedAt).
		WillReturnError(&pgconnUniqueViolation)

	err = repo.Create(context.Background(), w)
	assert.ErrorIs(t, err, domain.ErrDuplicateWallet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByUserAndCurrency(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(w.UserID, "NGN").
		WillReturnRows(walletRow(w))

	result, err := repo.GetByUserAndCurrency(context.Background(), w.UserID, "NGN")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.Equal(t, domain.KindFiat, result.Currency.Kind)
	assert.True(t, result.Balance.Equal(w.Balance))
}

func TestWalletRepo_GetByUserAndCurrency_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(userID, "SUI").
		WillReturnRows(pgxmock.NewRows(walletCols()))

	result, err := repo.GetByUserAndCurrency(context.Background(), userID, "SUI")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWalletRepo_GetByAccountNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE address").
		WithArgs("8123456789", "FIAT").
		WillReturnRows(walletRow(w))

	result, err := repo.GetByAccountNumber(context.Background(), "8123456789")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.Address, result.Address)
}

func TestWalletRepo_GetByAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())
	w.Currency = domain.DefaultCrypto
	w.Address = "0x3f8a9b2c1d4e5f60718293a4b5c6d7e8f9001122"

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE address").
		WithArgs(w.Address, "CRYPTO").
		WillReturnRows(walletRow(w))

	result, err := repo.GetByAddress(context.Background(), w.Address)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.KindCrypto, result.Currency.Kind)
}

func TestWalletRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id .+ FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(walletRow(w))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), dbTx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_AdjustBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	delta := decimal.NewFromInt(-1000)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(delta, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.AdjustBalance(context.Background(), dbTx, walletID, delta)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_AdjustBalance_Overdraw(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	delta := decimal.NewFromInt(-5000)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(delta, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.AdjustBalance(context.Background(), dbTx, walletID, delta)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestWalletRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()
	fiat := newTestWallet(userID)
	crypto := newTestWallet(userID)
	crypto.Currency = domain.DefaultCrypto
	crypto.Address = "0xaabbccddeeff00112233445566778899aabbccdd"

	rows := pgxmock.NewRows(walletCols()).
		AddRow(fiat.ID, fiat.UserID, string(fiat.Currency.Kind), fiat.Currency.Code, fiat.Balance.String(),
			fiat.Address, string(fiat.Status), fiat.CreatedAt, fiat.UpdatedAt).
		AddRow(crypto.ID, crypto.UserID, string(crypto.Currency.Kind), crypto.Currency.Code, crypto.Balance.String(),
			crypto.Address, string(crypto.Status), crypto.CreatedAt, crypto.UpdatedAt)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id .+ ORDER BY created_at").
		WithArgs(userID).
		WillReturnRows(rows)

	result, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, domain.KindFiat, result[0].Currency.Kind)
	assert.Equal(t, domain.KindCrypto, result[1].Currency.Kind)
}
