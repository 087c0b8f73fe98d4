package gas

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingFetcher struct {
	calls int
	price decimal.Decimal
	err   error
}

func (f *countingFetcher) fetch(context.Context) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.price, nil
}

func TestGetGasPriceCachesWithinTTL(t *testing.T) {
	estimator := NewCachedEstimator(time.Minute, testLogger())
	fetcher := &countingFetcher{price: decimal.NewFromInt(100)}
	estimator.RegisterFetcher("ethereum", fetcher.fetch)

	for i := 0; i < 5; i++ {
		price, err := estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(100)))
	}
	assert.Equal(t, 1, fetcher.calls, "price within TTL must come from cache")
}

func TestGetGasPriceRefreshesAfterTTL(t *testing.T) {
	estimator := NewCachedEstimator(time.Nanosecond, testLogger())
	fetcher := &countingFetcher{price: decimal.NewFromInt(100)}
	estimator.RegisterFetcher("ethereum", fetcher.fetch)

	_, err := estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	fetcher.price = decimal.NewFromInt(250)
	price, err := estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetGasPriceAppliesPriorityMultiplier(t *testing.T) {
	estimator := NewCachedEstimator(time.Minute, testLogger())
	estimator.RegisterFetcher("ethereum", StaticFetcher(decimal.NewFromInt(100)))

	cases := []struct {
		priority domain.ExecutionPriority
		want     int64
	}{
		{domain.PriorityFast, 150},
		{domain.PriorityStandard, 100},
		{domain.PriorityEconomic, 80},
	}
	for _, tc := range cases {
		price, err := estimator.GetGasPrice(context.Background(), "ethereum", tc.priority)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(tc.want)), "%s: got %s", tc.priority, price)
	}
}

func TestGetGasPriceServesStaleCacheOnFetchFailure(t *testing.T) {
	estimator := NewCachedEstimator(time.Nanosecond, testLogger())
	fetcher := &countingFetcher{price: decimal.NewFromInt(100)}
	estimator.RegisterFetcher("ethereum", fetcher.fetch)

	_, err := estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	fetcher.err = errors.New("rpc unavailable")
	price, err := estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	require.NoError(t, err, "stale cache must be served when refresh fails")
	assert.True(t, price.Equal(decimal.NewFromInt(100)))
}

func TestGetGasPriceFailsWithoutCacheOrFetcher(t *testing.T) {
	estimator := NewCachedEstimator(time.Minute, testLogger())

	_, err := estimator.GetGasPrice(context.Background(), "solana", domain.PriorityStandard)
	var unknown *domain.UnknownEntityError
	assert.ErrorAs(t, err, &unknown)

	fetcher := &countingFetcher{err: errors.New("rpc unavailable")}
	estimator.RegisterFetcher("ethereum", fetcher.fetch)
	_, err = estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	assert.Error(t, err, "no cache to fall back to")
}

func TestGetGasPriceRejectsNonPositivePrice(t *testing.T) {
	estimator := NewCachedEstimator(time.Minute, testLogger())
	estimator.RegisterFetcher("ethereum", StaticFetcher(decimal.Zero))

	_, err := estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	assert.Error(t, err)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	estimator := NewCachedEstimator(time.Minute, testLogger())
	fetcher := &countingFetcher{price: decimal.NewFromInt(100)}
	estimator.RegisterFetcher("ethereum", fetcher.fetch)

	_, err := estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	require.NoError(t, err)
	estimator.Invalidate("ethereum")
	_, err = estimator.GetGasPrice(context.Background(), "ethereum", domain.PriorityStandard)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}
