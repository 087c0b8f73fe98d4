// Package memory 提供内存仓储实现，用于本地模式与测试
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// OrderRepository 订单仓储的内存实现
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewOrderRepository 创建内存订单仓储
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

// Save 保存新订单
func (r *OrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.OrderID] = order
	return nil
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return r.Save(ctx, order)
}

// GetByOrderID 按业务 ID 查询订单
func (r *OrderRepository) GetByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, &domain.UnknownEntityError{Kind: "order", ID: orderID}
	}
	return order, nil
}

// ListByMaker 查询某个 maker 的订单
func (r *OrderRepository) ListByMaker(_ context.Context, maker string, limit, offset int) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Maker == maker {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ListActiveForPair 查询交易对下的活跃订单
func (r *OrderRepository) ListActiveForPair(_ context.Context, key domain.PairKey) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.PairKey() != key {
			continue
		}
		if o.Status == domain.OrderStatusActive || o.Status == domain.OrderStatusPartiallyFilled {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}
