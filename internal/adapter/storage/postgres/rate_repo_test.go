package postgres

import (
	"context"
	"testing"
	"time"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRateRepo(mock)
	updated := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT symbol, rate, last_updated FROM exchange_rates").
		WithArgs("SUI/NGN").
		WillReturnRows(pgxmock.NewRows([]string{"symbol", "rate", "last_updated"}).
			AddRow("SUI/NGN", "5234.75", updated))

	rate, err := repo.Get(context.Background(), "SUI/NGN")
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, "SUI/NGN", rate.Symbol)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("5234.75")))
	assert.Equal(t, updated, rate.LastUpdated)
}

func TestRateRepo_Get_NeverPersisted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRateRepo(mock)

	mock.ExpectQuery("SELECT symbol, rate, last_updated FROM exchange_rates").
		WithArgs("USDC/NGN").
		WillReturnRows(pgxmock.NewRows([]string{"symbol", "rate", "last_updated"}))

	rate, err := repo.Get(context.Background(), "USDC/NGN")
	assert.NoError(t, err)
	assert.Nil(t, rate)
}

func TestRateRepo_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRateRepo(mock)
	rate := &domain.ExchangeRate{
		Symbol:      "SUI/NGN",
		Rate:        decimal.RequireFromString("5100.50"),
		LastUpdated: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO exchange_rates").
		WithArgs(rate.Symbol, rate.Rate, rate.LastUpdated).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Upsert(context.Background(), rate)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
