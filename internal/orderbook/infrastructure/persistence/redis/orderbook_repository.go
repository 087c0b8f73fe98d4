// Package redis 提供订单簿深度快照的读模型存储
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/pkg/cache"
)

const (
	snapshotKeyPrefix = "orderbook:snapshot:"
	snapshotTTL       = 10 * time.Second
)

// OrderBookRepository 订单簿快照仓储，短 TTL，过期即视为无快照
type OrderBookRepository struct {
	cache *cache.RedisCache
}

// NewOrderBookRepository 创建快照仓储
func NewOrderBookRepository(c *cache.RedisCache) *OrderBookRepository {
	return &OrderBookRepository{cache: c}
}

// SaveSnapshot 写入交易对深度快照
func (r *OrderBookRepository) SaveSnapshot(ctx context.Context, snapshot *domain.BookSnapshot) error {
	key := snapshotKey(snapshot.Pair)
	if err := r.cache.SetJSON(ctx, key, snapshot, snapshotTTL); err != nil {
		return fmt.Errorf("failed to save orderbook snapshot %s: %w", key, err)
	}
	return nil
}

// GetSnapshot 读取交易对深度快照，不存在返回 nil
func (r *OrderBookRepository) GetSnapshot(ctx context.Context, pair domain.PairKey) (*domain.BookSnapshot, error) {
	key := snapshotKey(pair)
	var snapshot domain.BookSnapshot
	if err := r.cache.GetJSON(ctx, key, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to load orderbook snapshot %s: %w", key, err)
	}
	if snapshot.Timestamp == 0 {
		return nil, nil
	}
	return &snapshot, nil
}

func snapshotKey(pair domain.PairKey) string {
	return snapshotKeyPrefix + pair.String()
}
