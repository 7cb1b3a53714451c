package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"custodial-wallet-backend/internal/core/domain"
	"custodial-wallet-backend/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Decimal places kept on converted amounts, by target currency kind.
const (
	cryptoScale int32 = 6
	fiatScale   int32 = 2
)

// RateServiceImpl implements ports.RateService as a read-through cache over
// an external price feed. Reads are served from memory only; the feed is
// touched exclusively by Seed and Refresh, so a flaky provider can never
// stall or fail a transfer.
type RateServiceImpl struct {
	feed      ports.PriceFeed
	rateRepo  ports.RateRepository
	fallbacks map[string]decimal.Decimal
	log       zerolog.Logger

	mu    sync.RWMutex
	rates map[string]domain.ExchangeRate
}

// NewRateService creates a RateServiceImpl tracking exactly the symbols in
// fallbacks. Each fallback value is the rate of last resort for its symbol,
// used until a persisted or live rate is available.
func NewRateService(
	feed ports.PriceFeed,
	rateRepo ports.RateRepository,
	fallbacks map[string]decimal.Decimal,
	log zerolog.Logger,
) *RateServiceImpl {
	rates := make(map[string]domain.ExchangeRate, len(fallbacks))
	for symbol, rate := range fallbacks {
		rates[symbol] = domain.ExchangeRate{Symbol: symbol, Rate: rate}
	}
	return &RateServiceImpl{
		feed:      feed,
		rateRepo:  rateRepo,
		fallbacks: fallbacks,
		log:       log,
		rates:     rates,
	}
}

// Seed replaces fallback entries with the last persisted rate where one
// exists, then attempts one live refresh. Called once at startup; every
// failure is non-fatal because the fallback already makes reads total.
func (s *RateServiceImpl) Seed(ctx context.Context) {
	for _, symbol := range s.trackedSymbols() {
		persisted, err := s.rateRepo.Get(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("loading persisted rate failed, keeping fallback")
			continue
		}
		if persisted == nil {
			continue
		}
		s.mu.Lock()
		s.rates[symbol] = *persisted
		s.mu.Unlock()
	}

	s.Refresh(ctx)
}

// GetRate returns the cached rate for symbol, or zero for untracked symbols.
// It never blocks on I/O and never fails.
func (s *RateServiceImpl) GetRate(symbol string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates[symbol].Rate
}

// RateInfo returns the full cached entry for symbol.
func (s *RateServiceImpl) RateInfo(symbol string) (domain.ExchangeRate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.rates[symbol]
	return entry, ok
}

// Convert converts amount from one currency to another using the cached
// rate for the pair, in either orientation. Crypto results keep 6 decimal
// places, fiat results 2. Returns zero when no rate is tracked for the pair.
func (s *RateServiceImpl) Convert(amount decimal.Decimal, from, to domain.Currency) decimal.Decimal {
	if from.Code == to.Code {
		return amount
	}

	var converted decimal.Decimal
	if rate := s.GetRate(domain.RateSymbol(from.Code, to.Code)); rate.IsPositive() {
		converted = amount.Mul(rate)
	} else if rate := s.GetRate(domain.RateSymbol(to.Code, from.Code)); rate.IsPositive() {
		converted = amount.DivRound(rate, cryptoScale+2)
	} else {
		s.log.Error().
			Str("from", from.Code).
			Str("to", to.Code).
			Msg("no tracked rate for currency pair")
		return decimal.Zero
	}

	if to.Kind == domain.KindCrypto {
		return converted.Round(cryptoScale)
	}
	return converted.Round(fiatScale)
}

// Refresh fetches a fresh rate for every tracked symbol. A symbol whose
// fetch fails keeps its previous cached value; successful fetches are also
// persisted so the next process start seeds from them.
func (s *RateServiceImpl) Refresh(ctx context.Context) {
	for _, symbol := range s.trackedSymbols() {
		base, quote, ok := domain.SplitRateSymbol(symbol)
		if !ok {
			s.log.Error().Str("symbol", symbol).Msg("malformed tracked symbol")
			continue
		}

		rate, err := s.feed.FetchRate(ctx, base, quote)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("rate refresh failed, keeping cached value")
			continue
		}

		entry := domain.ExchangeRate{
			Symbol:      symbol,
			Rate:        rate,
			LastUpdated: time.Now().UTC(),
		}

		s.mu.Lock()
		s.rates[symbol] = entry
		s.mu.Unlock()

		if err := s.rateRepo.Upsert(ctx, &entry); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("persisting refreshed rate failed")
		}

		s.log.Debug().
			Str("symbol", symbol).
			Str("rate", rate.String()).
			Msg("rate refreshed")
	}
}

// RunRefreshLoop refreshes all tracked symbols every interval until ctx is
// cancelled. Intended to run in its own goroutine.
func (s *RateServiceImpl) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *RateServiceImpl) trackedSymbols() []string {
	symbols := make([]string, 0, len(s.fallbacks))
	for symbol := range s.fallbacks {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
