package application

import "time"

// PlaceOrderCommand 下单命令，数量与价格为十进制字符串
type PlaceOrderCommand struct {
	Maker        string     `json:"maker" binding:"required"`
	Side         string     `json:"side" binding:"required"`
	BaseAssetID  string     `json:"base_asset_id" binding:"required"`
	BaseChainID  string     `json:"base_chain_id" binding:"required"`
	QuoteAssetID string     `json:"quote_asset_id" binding:"required"`
	QuoteChainID string     `json:"quote_chain_id" binding:"required"`
	Amount       string     `json:"amount" binding:"required"`
	Price        string     `json:"price" binding:"required"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// TakerResult taker 订单的处理结果
type TakerResult struct {
	OrderID     string `json:"order_id"`
	MatchID     string `json:"match_id,omitempty"`
	Status      string `json:"status"`
	MatchStatus string `json:"match_status,omitempty"`
	FillCount   int    `json:"fill_count"`
	TotalFilled string `json:"total_filled"`
}
