package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// MatchRepository 撮合仓储的内存实现
type MatchRepository struct {
	mu      sync.RWMutex
	matches map[string]*domain.OrderMatch
}

// NewMatchRepository 创建内存撮合仓储
func NewMatchRepository() *MatchRepository {
	return &MatchRepository{matches: make(map[string]*domain.OrderMatch)}
}

// Save 保存新撮合
func (r *MatchRepository) Save(_ context.Context, match *domain.OrderMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[match.MatchID] = match
	return nil
}

// Update 更新撮合
func (r *MatchRepository) Update(ctx context.Context, match *domain.OrderMatch) error {
	return r.Save(ctx, match)
}

// GetByMatchID 按业务 ID 查询撮合
func (r *MatchRepository) GetByMatchID(_ context.Context, matchID string) (*domain.OrderMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	match, ok := r.matches[matchID]
	if !ok {
		return nil, &domain.UnknownEntityError{Kind: "match", ID: matchID}
	}
	return match, nil
}

// ListByOrderID 查询某订单参与的全部撮合
func (r *MatchRepository) ListByOrderID(_ context.Context, orderID string) ([]*domain.OrderMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.OrderMatch
	for _, m := range r.matches {
		if m.TakerOrderID == orderID {
			out = append(out, m)
			continue
		}
		for _, fill := range m.Fills {
			if fill.MakerOrderID == orderID {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}
