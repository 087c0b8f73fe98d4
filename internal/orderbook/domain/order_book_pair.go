package domain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PairKey 交易对的类型化四元组键
type PairKey struct {
	BaseAssetID  string `json:"base_asset_id"`
	BaseChainID  string `json:"base_chain_id"`
	QuoteAssetID string `json:"quote_asset_id"`
	QuoteChainID string `json:"quote_chain_id"`
}

func (k PairKey) String() string {
	return fmt.Sprintf("%s@%s/%s@%s", k.BaseAssetID, k.BaseChainID, k.QuoteAssetID, k.QuoteChainID)
}

// PriceLevel 订单簿深度中的一档
type PriceLevel struct {
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
	OrderCount int             `json:"order_count"`
}

// BookSnapshot 订单簿深度快照
type BookSnapshot struct {
	Pair      PairKey      `json:"pair"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// MakerAllocation 撮合分配给单个 maker 的成交量
type MakerAllocation struct {
	Order  *Order
	Amount decimal.Decimal
}

// OrderBookPair 单个交易对的订单簿
// 买卖两侧始终按价格时间优先排序；同一交易对的撮合由内部互斥锁串行化
type OrderBookPair struct {
	Key PairKey

	mu   sync.Mutex
	bids []*Order
	asks []*Order
}

// NewOrderBookPair 创建交易对订单簿
func NewOrderBookPair(key PairKey) *OrderBookPair {
	return &OrderBookPair{Key: key}
}

// AddOrder 将订单加入订单簿并重排对应一侧
func (b *OrderBookPair) AddOrder(order *Order) error {
	if order == nil {
		return NewValidationError("order", "must not be nil")
	}
	if order.PairKey() != b.Key {
		return NewValidationError("order",
			fmt.Sprintf("order %s belongs to pair %s, not %s", order.OrderID, order.PairKey(), b.Key))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch order.Side {
	case SideBuy:
		b.bids = append(b.bids, order)
		sortBids(b.bids)
	case SideSell:
		b.asks = append(b.asks, order)
		sortAsks(b.asks)
	default:
		return NewValidationError("side", "must be BUY or SELL")
	}
	return nil
}

// RemoveOrder 从订单簿移除订单，订单不存在时返回 false，不视为错误
func (b *OrderBookPair) RemoveOrder(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if removed := removeByID(&b.bids, orderID); removed {
		return true
	}
	return removeByID(&b.asks, orderID)
}

// FindMatchingOrders 返回与 taker 价格交叉的可撮合 maker，按价格时间优先排列
func (b *OrderBookPair) FindMatchingOrders(taker *Order, now time.Time) []*Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findMatchingLocked(taker, now)
}

// HasEnoughLiquidity 粗略判断可撮合流动性是否覆盖 taker 数量
// 仅供提示，真实分配以 AllocateMatch 为准
func (b *OrderBookPair) HasEnoughLiquidity(taker *Order, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	available := decimal.Zero
	for _, maker := range b.findMatchingLocked(taker, now) {
		available = available.Add(maker.AvailableAmount())
		if available.GreaterThanOrEqual(taker.Amount) {
			return true
		}
	}
	return false
}

// AllocateMatch 对 taker 做单遍贪心分配，生成撮合结果
// 不修改任何订单状态，但在 maker 上预留分配量：在途结算期间
// 同一流动性对后续撮合不可见；空撮合（无交叉）也是合法结果
func (b *OrderBookPair) AllocateMatch(matchID string, taker *Order, now time.Time) (*OrderMatch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	match, err := NewOrderMatch(matchID, taker)
	if err != nil {
		return nil, err
	}

	remaining := taker.RemainingAmount()
	for _, maker := range b.findMatchingLocked(taker, now) {
		if !remaining.IsPositive() {
			break
		}
		fill := decimal.Min(remaining, maker.AvailableAmount())
		if !fill.IsPositive() {
			continue
		}
		if err := maker.Reserve(fill); err != nil {
			match.ReleaseReservations()
			return nil, err
		}
		if err := match.AddMakerOrder(maker, fill); err != nil {
			maker.ReleaseReserved(fill)
			match.ReleaseReservations()
			return nil, err
		}
		remaining = remaining.Sub(fill)
	}
	return match, nil
}

// Snapshot 生成按价格聚合的深度快照
func (b *OrderBookPair) Snapshot(depth int) *BookSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &BookSnapshot{
		Pair:      b.Key,
		Bids:      aggregateLevels(b.bids, depth),
		Asks:      aggregateLevels(b.asks, depth),
		Timestamp: time.Now().UnixNano(),
	}
}

// findMatchingLocked 调用方必须持有 b.mu
func (b *OrderBookPair) findMatchingLocked(taker *Order, now time.Time) []*Order {
	var candidates []*Order
	switch taker.Side {
	case SideBuy:
		for _, maker := range b.asks {
			if maker.Price.GreaterThan(taker.Price) {
				break
			}
			if maker.IsMatchable(now) && maker.OrderID != taker.OrderID {
				candidates = append(candidates, maker)
			}
		}
	case SideSell:
		for _, maker := range b.bids {
			if maker.Price.LessThan(taker.Price) {
				break
			}
			if maker.IsMatchable(now) && maker.OrderID != taker.OrderID {
				candidates = append(candidates, maker)
			}
		}
	}
	return candidates
}

// sortBids 买单按价格降序，价格相同按时间升序
func sortBids(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].Price.Equal(orders[j].Price) {
			return orders[i].Price.GreaterThan(orders[j].Price)
		}
		return orders[i].Timestamp < orders[j].Timestamp
	})
}

// sortAsks 卖单按价格升序，价格相同按时间升序
func sortAsks(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].Price.Equal(orders[j].Price) {
			return orders[i].Price.LessThan(orders[j].Price)
		}
		return orders[i].Timestamp < orders[j].Timestamp
	})
}

func removeByID(orders *[]*Order, orderID string) bool {
	for i, o := range *orders {
		if o.OrderID == orderID {
			*orders = append((*orders)[:i], (*orders)[i+1:]...)
			return true
		}
	}
	return false
}

func aggregateLevels(orders []*Order, depth int) []PriceLevel {
	levels := make([]PriceLevel, 0, depth)
	now := time.Now()
	for _, o := range orders {
		if !o.IsMatchable(now) {
			continue
		}
		available := o.AvailableAmount()
		if !available.IsPositive() {
			continue
		}
		if n := len(levels); n > 0 && levels[n-1].Price.Equal(o.Price) {
			levels[n-1].Amount = levels[n-1].Amount.Add(available)
			levels[n-1].OrderCount++
			continue
		}
		if depth > 0 && len(levels) >= depth {
			break
		}
		levels = append(levels, PriceLevel{
			Price:      o.Price,
			Amount:     available,
			OrderCount: 1,
		})
	}
	return levels
}
