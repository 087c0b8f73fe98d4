package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderSide 订单方向
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusActive          OrderStatus = "ACTIVE"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// IsTerminal 是否为终态，终态不允许再迁移
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// orderTransitions 合法的状态迁移表
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusActive, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusActive:          {OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusPartiallyFilled: {OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCancelled, OrderStatusFailed},
}

// canTransition 检查状态迁移是否合法
func canTransition(from, to OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order 跨链限价订单聚合根
type Order struct {
	gorm.Model
	OrderID      string          `gorm:"column:order_id;type:varchar(64);uniqueIndex" json:"order_id"`
	Maker        string          `gorm:"column:maker;type:varchar(128);index" json:"maker"`
	Side         OrderSide       `gorm:"column:side;type:varchar(8)" json:"side"`
	BaseAssetID  string          `gorm:"column:base_asset_id;type:varchar(64);index:idx_pair" json:"base_asset_id"`
	BaseChainID  string          `gorm:"column:base_chain_id;type:varchar(64);index:idx_pair" json:"base_chain_id"`
	QuoteAssetID string          `gorm:"column:quote_asset_id;type:varchar(64);index:idx_pair" json:"quote_asset_id"`
	QuoteChainID string          `gorm:"column:quote_chain_id;type:varchar(64);index:idx_pair" json:"quote_chain_id"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(36,18)" json:"amount"`
	Price        decimal.Decimal `gorm:"column:price;type:decimal(36,18)" json:"price"`
	FilledAmount decimal.Decimal `gorm:"column:filled_amount;type:decimal(36,18)" json:"filled_amount"`
	Status       OrderStatus     `gorm:"column:status;type:varchar(20);index" json:"status"`
	Timestamp    int64           `gorm:"column:timestamp" json:"timestamp"`
	ExpiresAt    *time.Time      `gorm:"column:expires_at" json:"expires_at,omitempty"`

	// 在途结算预留量：撮合分配时锁定，成交时消耗，拒绝或回滚时归还
	// 不落库，重启后订单簿惰性重建时归零
	mu       sync.Mutex
	reserved decimal.Decimal
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// NewOrder 创建订单，初始状态为 PENDING
func NewOrder(orderID, maker string, side OrderSide,
	baseAssetID, baseChainID, quoteAssetID, quoteChainID string,
	amount, price decimal.Decimal, expiresAt *time.Time) (*Order, error) {
	if orderID == "" {
		return nil, NewValidationError("order_id", "must not be empty")
	}
	if maker == "" {
		return nil, NewValidationError("maker", "must not be empty")
	}
	if side != SideBuy && side != SideSell {
		return nil, NewValidationError("side", "must be BUY or SELL")
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "must be positive")
	}
	if !price.IsPositive() {
		return nil, NewValidationError("price", "must be positive")
	}
	if baseAssetID == quoteAssetID && baseChainID == quoteChainID {
		return nil, NewValidationError("pair", "base and quote legs must differ")
	}
	// 每条结算腿都经由桥转移，同链交易对没有可用的桥方向
	if baseChainID == quoteChainID {
		return nil, NewValidationError("pair", "base and quote legs must be on different chains")
	}
	return &Order{
		OrderID:      orderID,
		Maker:        maker,
		Side:         side,
		BaseAssetID:  baseAssetID,
		BaseChainID:  baseChainID,
		QuoteAssetID: quoteAssetID,
		QuoteChainID: quoteChainID,
		Amount:       amount,
		Price:        price,
		FilledAmount: decimal.Zero,
		Status:       OrderStatusPending,
		Timestamp:    time.Now().UnixNano(),
		ExpiresAt:    expiresAt,
	}, nil
}

// PairKey 返回订单所属交易对的键
func (o *Order) PairKey() PairKey {
	return PairKey{
		BaseAssetID:  o.BaseAssetID,
		BaseChainID:  o.BaseChainID,
		QuoteAssetID: o.QuoteAssetID,
		QuoteChainID: o.QuoteChainID,
	}
}

// RemainingAmount 剩余未成交数量
func (o *Order) RemainingAmount() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Amount.Sub(o.FilledAmount)
}

// AvailableAmount 可分配给新撮合的数量：总量减去已成交与在途预留
func (o *Order) AvailableAmount() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Amount.Sub(o.FilledAmount).Sub(o.reserved)
}

// ReservedAmount 当前被在途结算预留的数量
func (o *Order) ReservedAmount() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reserved
}

// Reserve 为一次在途结算预留成交量
// 超出可用量的预留被拒绝，同一流动性不会被并发撮合分配两次
func (o *Order) Reserve(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("reserve_amount", "must be positive")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	available := o.Amount.Sub(o.FilledAmount).Sub(o.reserved)
	if amount.GreaterThan(available) {
		return NewValidationError("reserve_amount",
			fmt.Sprintf("reserve %s exceeds available %s on order %s", amount, available, o.OrderID))
	}
	o.reserved = o.reserved.Add(amount)
	return nil
}

// ReleaseReserved 归还预留量，结算被拒绝或回滚时调用
func (o *Order) ReleaseReserved(amount decimal.Decimal) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reserved = o.reserved.Sub(amount)
	if o.reserved.IsNegative() {
		o.reserved = decimal.Zero
	}
}

// IsExpired 订单是否已过期
func (o *Order) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}

// IsMatchable 订单是否可参与撮合
func (o *Order) IsMatchable(now time.Time) bool {
	if o.IsExpired(now) {
		return false
	}
	return o.Status == OrderStatusActive || o.Status == OrderStatusPartiallyFilled
}

// TransitionTo 迁移订单状态，非法迁移返回错误
// 终态是最终的：对已处于终态的订单重复迁移同样报错
func (o *Order) TransitionTo(target OrderStatus) error {
	if o.Status == target {
		if target.IsTerminal() {
			return fmt.Errorf("order %s already in terminal status %s", o.OrderID, o.Status)
		}
		return nil
	}
	if !canTransition(o.Status, target) {
		return fmt.Errorf("invalid order status transition %s -> %s for order %s", o.Status, target, o.OrderID)
	}
	o.Status = target
	return nil
}

// Activate 订单进入订单簿前置为 ACTIVE
func (o *Order) Activate() error {
	return o.TransitionTo(OrderStatusActive)
}

// Cancel 取消订单
func (o *Order) Cancel() error {
	return o.TransitionTo(OrderStatusCancelled)
}

// Fail 标记订单失败
func (o *Order) Fail() error {
	return o.TransitionTo(OrderStatusFailed)
}

// ApplyFill 累加成交数量，成交只增不减且不能超过订单总量
// 成交消耗对应的预留量
func (o *Order) ApplyFill(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("fill_amount", "must be positive")
	}
	o.mu.Lock()
	newFilled := o.FilledAmount.Add(amount)
	if newFilled.GreaterThan(o.Amount) {
		remaining := o.Amount.Sub(o.FilledAmount)
		o.mu.Unlock()
		return NewValidationError("fill_amount",
			fmt.Sprintf("fill %s exceeds remaining %s on order %s", amount, remaining, o.OrderID))
	}
	o.FilledAmount = newFilled
	o.reserved = o.reserved.Sub(amount)
	if o.reserved.IsNegative() {
		o.reserved = decimal.Zero
	}
	o.mu.Unlock()
	if newFilled.Equal(o.Amount) {
		return o.TransitionTo(OrderStatusFilled)
	}
	return o.TransitionTo(OrderStatusPartiallyFilled)
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	GetByOrderID(ctx context.Context, orderID string) (*Order, error)
	ListByMaker(ctx context.Context, maker string, limit, offset int) ([]*Order, error)
	ListActiveForPair(ctx context.Context, key PairKey) ([]*Order, error)
}
