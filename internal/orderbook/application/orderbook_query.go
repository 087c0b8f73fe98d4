package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// SnapshotRepository 订单簿快照读模型
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *domain.BookSnapshot) error
	GetSnapshot(ctx context.Context, pair domain.PairKey) (*domain.BookSnapshot, error)
}

// OrderBookQueryService 查询侧服务
// 深度查询优先走 redis 快照，未命中回源内存订单簿并写穿
type OrderBookQueryService struct {
	logger    *slog.Logger
	book      *domain.MultiChainOrderBook
	orders    domain.OrderRepository
	matches   domain.MatchRepository
	snapshots SnapshotRepository
}

// NewOrderBookQueryService 创建查询服务
func NewOrderBookQueryService(
	book *domain.MultiChainOrderBook,
	orders domain.OrderRepository,
	matches domain.MatchRepository,
	snapshots SnapshotRepository,
	log *slog.Logger,
) *OrderBookQueryService {
	return &OrderBookQueryService{
		logger:    log.With("module", "orderbook_query"),
		book:      book,
		orders:    orders,
		matches:   matches,
		snapshots: snapshots,
	}
}

// GetDepth 返回交易对深度快照
func (s *OrderBookQueryService) GetDepth(ctx context.Context, pair domain.PairKey, depth int) (*domain.BookSnapshot, error) {
	if s.snapshots != nil {
		snapshot, err := s.snapshots.GetSnapshot(ctx, pair)
		if err != nil {
			s.logger.Warn("snapshot read failed, falling back to live book",
				"pair", pair.String(), "error", err)
		} else if snapshot != nil {
			return snapshot, nil
		}
	}
	return s.RefreshPair(ctx, pair, depth)
}

// RefreshPair 从内存订单簿重建快照并写回读模型
func (s *OrderBookQueryService) RefreshPair(ctx context.Context, pair domain.PairKey, depth int) (*domain.BookSnapshot, error) {
	book, ok := s.book.GetOrderBook(pair)
	if !ok {
		return nil, &domain.UnknownEntityError{Kind: "orderbook", ID: pair.String()}
	}
	snapshot := book.Snapshot(depth)
	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			s.logger.Warn("snapshot write failed", "pair", pair.String(), "error", err)
		}
	}
	return snapshot, nil
}

// GetOrder 查询订单
func (s *OrderBookQueryService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetByOrderID(ctx, orderID)
}

// ListOrdersByMaker 查询某个 maker 的订单
func (s *OrderBookQueryService) ListOrdersByMaker(ctx context.Context, maker string, limit, offset int) ([]*domain.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.orders.ListByMaker(ctx, maker, limit, offset)
}

// GetMatch 查询撮合
func (s *OrderBookQueryService) GetMatch(ctx context.Context, matchID string) (*domain.OrderMatch, error) {
	return s.matches.GetByMatchID(ctx, matchID)
}

// ListMatchesByOrder 查询订单参与的撮合
func (s *OrderBookQueryService) ListMatchesByOrder(ctx context.Context, orderID string) ([]*domain.OrderMatch, error) {
	return s.matches.ListByOrderID(ctx, orderID)
}
