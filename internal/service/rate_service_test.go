package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-wallet-backend/internal/core/domain"
	"custodial-wallet-backend/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const suiNGN = "SUI/NGN"

func setupRateService(t *testing.T) (*RateServiceImpl, *mocks.MockPriceFeed, *mocks.MockRateRepository, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockPriceFeed(ctrl)
	rateRepo := mocks.NewMockRateRepository(ctrl)
	fallbacks := map[string]decimal.Decimal{
		suiNGN: decimal.RequireFromString("5000.00"),
	}
	svc := NewRateService(feed, rateRepo, fallbacks, zerolog.Nop())
	return svc, feed, rateRepo, ctrl
}

func TestRateService_GetRate_FallbackBeforeAnyRefresh(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	rate := svc.GetRate(suiNGN)
	assert.True(t, rate.Equal(decimal.RequireFromString("5000.00")), "got %s", rate)
}

func TestRateService_GetRate_UntrackedSymbolIsZero(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	assert.True(t, svc.GetRate("BTC/USD").IsZero())
}

func TestRateService_Seed_PrefersPersistedRate(t *testing.T) {
	svc, feed, rateRepo, ctrl := setupRateService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	persisted := &domain.ExchangeRate{
		Symbol:      suiNGN,
		Rate:        decimal.RequireFromString("5150.25"),
		LastUpdated: time.Now().Add(-time.Hour),
	}

	rateRepo.EXPECT().Get(ctx, suiNGN).Return(persisted, nil)
	// Live refresh fails; the persisted value must survive
	feed.EXPECT().FetchRate(ctx, "SUI", "NGN").Return(decimal.Zero, errors.New("feed down"))

	svc.Seed(ctx)

	assert.True(t, svc.GetRate(suiNGN).Equal(persisted.Rate))
}

func TestRateService_Seed_FeedFailureKeepsFallback(t *testing.T) {
	svc, feed, rateRepo, ctrl := setupRateService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	rateRepo.EXPECT().Get(ctx, suiNGN).Return(nil, nil)
	feed.EXPECT().FetchRate(ctx, "SUI", "NGN").Return(decimal.Zero, errors.New("timeout"))

	svc.Seed(ctx)

	assert.True(t, svc.GetRate(suiNGN).Equal(decimal.RequireFromString("5000.00")))
}

func TestRateService_Refresh_UpdatesCacheAndPersists(t *testing.T) {
	svc, feed, rateRepo, ctrl := setupRateService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	fresh := decimal.RequireFromString("5234.75")

	feed.EXPECT().FetchRate(ctx, "SUI", "NGN").Return(fresh, nil)
	rateRepo.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.ExchangeRate) error {
			assert.Equal(t, suiNGN, entry.Symbol)
			assert.True(t, entry.Rate.Equal(fresh))
			assert.False(t, entry.LastUpdated.IsZero())
			return nil
		})

	svc.Refresh(ctx)

	assert.True(t, svc.GetRate(suiNGN).Equal(fresh))
	info, ok := svc.RateInfo(suiNGN)
	require.True(t, ok)
	assert.False(t, info.LastUpdated.IsZero())
}

func TestRateService_Refresh_FailureKeepsPreviousValue(t *testing.T) {
	svc, feed, rateRepo, ctrl := setupRateService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	first := decimal.RequireFromString("5300")

	feed.EXPECT().FetchRate(ctx, "SUI", "NGN").Return(first, nil)
	rateRepo.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	svc.Refresh(ctx)

	feed.EXPECT().FetchRate(ctx, "SUI", "NGN").Return(decimal.Zero, errors.New("502"))
	svc.Refresh(ctx)

	assert.True(t, svc.GetRate(suiNGN).Equal(first))
}

func TestRateService_Refresh_PersistFailureIsNonFatal(t *testing.T) {
	svc, feed, rateRepo, ctrl := setupRateService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	fresh := decimal.RequireFromString("5100")

	feed.EXPECT().FetchRate(ctx, "SUI", "NGN").Return(fresh, nil)
	rateRepo.EXPECT().Upsert(ctx, gomock.Any()).Return(errors.New("db down"))

	svc.Refresh(ctx)

	assert.True(t, svc.GetRate(suiNGN).Equal(fresh))
}

func TestRateService_Convert_SameCurrency(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	amount := decimal.RequireFromString("123.45")
	got := svc.Convert(amount, domain.Fiat("NGN"), domain.Fiat("NGN"))
	assert.True(t, got.Equal(amount))
}

func TestRateService_Convert_CryptoToFiatMultiplies(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	// 2 SUI at 5000.00 NGN each, fiat result keeps 2 decimal places
	got := svc.Convert(decimal.NewFromInt(2), domain.DefaultCrypto, domain.Fiat("NGN"))
	assert.Equal(t, "10000", got.String())
}

func TestRateService_Convert_FiatToCryptoDivides(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	// 7500 NGN at 5000.00 NGN per SUI, crypto result keeps 6 decimal places
	got := svc.Convert(decimal.NewFromInt(7500), domain.Fiat("NGN"), domain.DefaultCrypto)
	assert.Equal(t, "1.5", got.String())
}

func TestRateService_Convert_RoundsHalfUp(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	// 1 NGN / 5000 = 0.0002 SUI exactly; 10 NGN / 5000 = 0.002
	got := svc.Convert(decimal.NewFromInt(1), domain.Fiat("NGN"), domain.DefaultCrypto)
	assert.Equal(t, "0.0002", got.String())
}

func TestRateService_Convert_UntrackedPairIsZero(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	got := svc.Convert(decimal.NewFromInt(10), domain.Fiat("USD"), domain.Fiat("NGN"))
	assert.True(t, got.IsZero())
}

func TestRateService_RateInfo_UntrackedSymbol(t *testing.T) {
	svc, _, _, ctrl := setupRateService(t)
	defer ctrl.Finish()

	_, ok := svc.RateInfo("ETH/USD")
	assert.False(t, ok)
}
