package domain

import "context"

// 领域事件主题
const (
	TopicOrderCreated   = "order.created"
	TopicOrderFilled    = "order.filled"
	TopicTradeCompleted = "trade.completed"
	TopicMatchFailed    = "match.failed"
)

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID      string `json:"order_id"`
	Maker        string `json:"maker"`
	Side         string `json:"side"`
	BaseAssetID  string `json:"base_asset_id"`
	BaseChainID  string `json:"base_chain_id"`
	QuoteAssetID string `json:"quote_asset_id"`
	QuoteChainID string `json:"quote_chain_id"`
	Amount       string `json:"amount"`
	Price        string `json:"price"`
	Timestamp    int64  `json:"timestamp"`
}

// Pair 事件对应的交易对键
func (e OrderCreatedEvent) Pair() PairKey {
	return PairKey{
		BaseAssetID:  e.BaseAssetID,
		BaseChainID:  e.BaseChainID,
		QuoteAssetID: e.QuoteAssetID,
		QuoteChainID: e.QuoteChainID,
	}
}

// OrderFilledEvent 订单成交事件
type OrderFilledEvent struct {
	OrderID      string `json:"order_id"`
	MatchID      string `json:"match_id"`
	FilledAmount string `json:"filled_amount"`
	TotalFilled  string `json:"total_filled"`
	Status       string `json:"status"`
	Timestamp    int64  `json:"timestamp"`
}

// TradeCompletedEvent 跨链结算完成事件
type TradeCompletedEvent struct {
	MatchID      string `json:"match_id"`
	TakerOrderID string `json:"taker_order_id"`
	FillCount    int    `json:"fill_count"`
	TotalAmount  string `json:"total_amount"`
	TradeValue   string `json:"trade_value"`
	Timestamp    int64  `json:"timestamp"`
}

// MatchFailedEvent 撮合结算失败事件
type MatchFailedEvent struct {
	MatchID      string `json:"match_id"`
	TakerOrderID string `json:"taker_order_id"`
	Status       string `json:"status"`
	Reason       string `json:"reason"`
	Timestamp    int64  `json:"timestamp"`
}

// EventPublisher 领域事件发布接口
// 投递为 at-most-once，慢订阅方不会阻塞发布方
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
