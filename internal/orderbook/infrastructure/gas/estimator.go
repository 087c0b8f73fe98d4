// Package gas 提供带 TTL 缓存的链上 gas price 估算
package gas

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// DefaultTTL gas price 缓存默认有效期
const DefaultTTL = 30 * time.Second

// PriceFetcher 拉取某条链当前基准 gas price
type PriceFetcher func(ctx context.Context) (decimal.Decimal, error)

type cachedPrice struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// CachedEstimator 实现 domain.GasPriceProvider
// 每条链独立的 fetcher 与缓存条目，过期后重新拉取，last-writer-wins
type CachedEstimator struct {
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	fetchers map[string]PriceFetcher
	cache    map[string]cachedPrice
}

// NewCachedEstimator 创建估算器
func NewCachedEstimator(ttl time.Duration, logger *slog.Logger) *CachedEstimator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedEstimator{
		ttl:      ttl,
		logger:   logger.With("module", "gas_estimator"),
		fetchers: make(map[string]PriceFetcher),
		cache:    make(map[string]cachedPrice),
	}
}

// RegisterFetcher 注册链的 gas price 拉取函数
func (e *CachedEstimator) RegisterFetcher(chainID string, fetcher PriceFetcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchers[chainID] = fetcher
}

// StaticFetcher 返回固定价格的 fetcher，用于配置驱动的链
func StaticFetcher(price decimal.Decimal) PriceFetcher {
	return func(context.Context) (decimal.Decimal, error) {
		return price, nil
	}
}

// GetGasPrice 返回链在指定优先级下的 gas price
// 基准价走缓存，优先级倍率在读取时叠加
func (e *CachedEstimator) GetGasPrice(ctx context.Context, chainID string, priority domain.ExecutionPriority) (decimal.Decimal, error) {
	base, err := e.basePrice(ctx, chainID)
	if err != nil {
		return decimal.Zero, err
	}
	return base.Mul(priority.Multiplier()), nil
}

func (e *CachedEstimator) basePrice(ctx context.Context, chainID string) (decimal.Decimal, error) {
	e.mu.RLock()
	entry, cached := e.cache[chainID]
	fetcher, known := e.fetchers[chainID]
	e.mu.RUnlock()

	if cached && time.Since(entry.fetchedAt) < e.ttl {
		return entry.price, nil
	}
	if !known {
		return decimal.Zero, &domain.UnknownEntityError{Kind: "gas fetcher", ID: chainID}
	}

	price, err := fetcher(ctx)
	if err != nil {
		// 拉取失败时退回过期缓存，避免撮合因瞬时抖动中断
		if cached {
			e.logger.Warn("gas price fetch failed, serving stale cache",
				"chain_id", chainID, "error", err)
			return entry.price, nil
		}
		return decimal.Zero, fmt.Errorf("failed to fetch gas price for chain %s: %w", chainID, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive gas price %s for chain %s", price, chainID)
	}

	e.mu.Lock()
	e.cache[chainID] = cachedPrice{price: price, fetchedAt: time.Now()}
	e.mu.Unlock()

	e.logger.Debug("gas price refreshed", "chain_id", chainID, "price", price.String())
	return price, nil
}

// Invalidate 主动失效某条链的缓存
func (e *CachedEstimator) Invalidate(chainID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cache, chainID)
}
