// Package mysql 提供基于 GORM 的仓储实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// OrderRepository 订单仓储的 MySQL 实现
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Save 保存新订单
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// GetByOrderID 按业务 ID 查询订单
func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.UnknownEntityError{Kind: "order", ID: orderID}
		}
		return nil, err
	}
	return &order, nil
}

// ListByMaker 查询某个 maker 的订单
func (r *OrderRepository) ListByMaker(ctx context.Context, maker string, limit, offset int) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.WithContext(ctx).
		Where("maker = ?", maker).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListActiveForPair 查询交易对下的活跃订单，用于重启后重建订单簿
func (r *OrderRepository) ListActiveForPair(ctx context.Context, key domain.PairKey) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.WithContext(ctx).
		Where("base_asset_id = ? AND base_chain_id = ? AND quote_asset_id = ? AND quote_chain_id = ?",
			key.BaseAssetID, key.BaseChainID, key.QuoteAssetID, key.QuoteChainID).
		Where("status IN ?", []domain.OrderStatus{domain.OrderStatusActive, domain.OrderStatusPartiallyFilled}).
		Order("timestamp ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
