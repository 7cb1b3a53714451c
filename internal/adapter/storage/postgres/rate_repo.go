package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RateRepo implements ports.RateRepository. One row per tracked symbol.
type RateRepo struct {
	pool Pool
}

// NewRateRepo creates a new RateRepo.
func NewRateRepo(pool Pool) *RateRepo {
	return &RateRepo{pool: pool}
}

// Get fetches the persisted rate for a symbol. Returns nil, nil when the
// symbol has never been persisted.
func (r *RateRepo) Get(ctx context.Context, symbol string) (*domain.ExchangeRate, error) {
	query := `SELECT symbol, rate, last_updated FROM exchange_rates WHERE symbol = $1`

	rate := &domain.ExchangeRate{}
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&rate.Symbol, &rate.Rate, &rate.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exchange rate: %w", err)
	}
	return rate, nil
}

// Upsert writes the current rate for a symbol, overwriting any previous row.
func (r *RateRepo) Upsert(ctx context.Context, rate *domain.ExchangeRate) error {
	query := `INSERT INTO exchange_rates (symbol, rate, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET rate = EXCLUDED.rate, last_updated = EXCLUDED.last_updated`

	_, err := r.pool.Exec(ctx, query, rate.Symbol, rate.Rate, rate.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert exchange rate: %w", err)
	}
	return nil
}
