package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// MatchRepository 撮合仓储的 MySQL 实现
// 成交分配序列化到 fills 列，Order 指针不持久化
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository 创建撮合仓储
func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Save 保存新撮合
func (r *MatchRepository) Save(ctx context.Context, match *domain.OrderMatch) error {
	if err := match.EncodeFills(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(match).Error
}

// Update 更新撮合
func (r *MatchRepository) Update(ctx context.Context, match *domain.OrderMatch) error {
	if err := match.EncodeFills(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(match).Error
}

// GetByMatchID 按业务 ID 查询撮合
func (r *MatchRepository) GetByMatchID(ctx context.Context, matchID string) (*domain.OrderMatch, error) {
	var match domain.OrderMatch
	err := r.db.WithContext(ctx).Where("match_id = ?", matchID).First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.UnknownEntityError{Kind: "match", ID: matchID}
		}
		return nil, err
	}
	if err := match.DecodeFills(); err != nil {
		return nil, err
	}
	return &match, nil
}

// ListByOrderID 查询某订单参与的全部撮合，taker 或 maker 侧均计入
func (r *MatchRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.OrderMatch, error) {
	var matches []*domain.OrderMatch
	err := r.db.WithContext(ctx).
		Where("taker_order_id = ? OR fills LIKE ?", orderID, "%\""+orderID+"\"%").
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if err := m.DecodeFills(); err != nil {
			return nil, err
		}
	}
	return matches, nil
}
