package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MatchStatus 撮合结算状态
type MatchStatus string

const (
	MatchStatusCreated     MatchStatus = "CREATED"
	MatchStatusGasChecked  MatchStatus = "GAS_CHECKED"
	MatchStatusRejected    MatchStatus = "REJECTED"
	MatchStatusLocking     MatchStatus = "LOCKING"
	MatchStatusProofing    MatchStatus = "PROOFING"
	MatchStatusReleasing   MatchStatus = "RELEASING"
	MatchStatusSettled     MatchStatus = "SETTLED"
	MatchStatusRollingBack MatchStatus = "ROLLING_BACK"
	MatchStatusFailed      MatchStatus = "FAILED"
)

// IsTerminal 是否为终态
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case MatchStatusRejected, MatchStatusSettled, MatchStatusFailed:
		return true
	}
	return false
}

// MakerFill 分配给单个 maker 的成交量，顺序即价格时间优先顺序
type MakerFill struct {
	Order        *Order          `gorm:"-" json:"-"`
	MakerOrderID string          `json:"maker_order_id"`
	Amount       decimal.Decimal `json:"amount"`
	Price        decimal.Decimal `json:"price"`
}

// ChainResolver 按 ID 解析已注册的区块链
type ChainResolver interface {
	GetChain(chainID string) (*Blockchain, error)
}

// OrderMatch 一次撮合的聚合根，贯穿 gas 检查到跨链结算的完整生命周期
type OrderMatch struct {
	gorm.Model
	MatchID      string      `gorm:"column:match_id;type:varchar(64);uniqueIndex" json:"match_id"`
	TakerOrderID string      `gorm:"column:taker_order_id;type:varchar(64);index" json:"taker_order_id"`
	Status       MatchStatus `gorm:"column:status;type:varchar(20);index" json:"status"`
	FillsJSON    string      `gorm:"column:fills;type:text" json:"-"`
	Reason       string      `gorm:"column:reason;type:varchar(512)" json:"reason,omitempty"`

	Taker *Order      `gorm:"-" json:"-"`
	Fills []MakerFill `gorm:"-" json:"fills"`
}

// TableName 指定表名
func (OrderMatch) TableName() string {
	return "order_matches"
}

// NewOrderMatch 创建撮合，初始状态 CREATED
func NewOrderMatch(matchID string, taker *Order) (*OrderMatch, error) {
	if matchID == "" {
		return nil, NewValidationError("match_id", "must not be empty")
	}
	if taker == nil {
		return nil, NewValidationError("taker", "must not be nil")
	}
	return &OrderMatch{
		MatchID:      matchID,
		TakerOrderID: taker.OrderID,
		Status:       MatchStatusCreated,
		Taker:        taker,
	}, nil
}

// AddMakerOrder 追加一笔 maker 成交分配，只允许在 CREATED 状态下调整
func (m *OrderMatch) AddMakerOrder(maker *Order, amount decimal.Decimal) error {
	if m.Status != MatchStatusCreated {
		return fmt.Errorf("cannot add maker to match %s in status %s", m.MatchID, m.Status)
	}
	if maker == nil {
		return NewValidationError("maker", "must not be nil")
	}
	if !amount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	if amount.GreaterThan(maker.RemainingAmount()) {
		return NewValidationError("amount",
			fmt.Sprintf("allocation %s exceeds remaining %s of maker %s", amount, maker.RemainingAmount(), maker.OrderID))
	}
	m.Fills = append(m.Fills, MakerFill{
		Order:        maker,
		MakerOrderID: maker.OrderID,
		Amount:       amount,
		Price:        maker.Price,
	})
	return nil
}

// ReleaseReservations 归还分配时在各 maker 上预留的成交量
// 撮合被拒绝或回滚后恰好调用一次；结算成功的撮合由 ApplyFill 消耗预留
func (m *OrderMatch) ReleaseReservations() {
	for _, fill := range m.Fills {
		if fill.Order != nil {
			fill.Order.ReleaseReserved(fill.Amount)
		}
	}
}

// IsEmpty 撮合是否没有任何成交
func (m *OrderMatch) IsEmpty() bool {
	return len(m.Fills) == 0
}

// TotalFillAmount 所有 maker 分配量之和
func (m *OrderMatch) TotalFillAmount() decimal.Decimal {
	total := decimal.Zero
	for _, fill := range m.Fills {
		total = total.Add(fill.Amount)
	}
	return total
}

// TradeValue 按各 maker 价格计算的成交总价值
func (m *OrderMatch) TradeValue() decimal.Decimal {
	total := decimal.Zero
	for _, fill := range m.Fills {
		total = total.Add(fill.Amount.Mul(fill.Price))
	}
	return total
}

// InvolvedChains 撮合涉及的全部链 ID，已去重
func (m *OrderMatch) InvolvedChains() []string {
	seen := make(map[string]struct{})
	var chains []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			chains = append(chains, id)
		}
	}
	if m.Taker != nil {
		add(m.Taker.BaseChainID)
		add(m.Taker.QuoteChainID)
	}
	for _, fill := range m.Fills {
		if fill.Order != nil {
			add(fill.Order.BaseChainID)
			add(fill.Order.QuoteChainID)
		}
	}
	return chains
}

// EstimateTotalGasCost 估算结算本撮合的总 gas 成本
// 每条去重后的链计一次 FILL_ORDER 费用
func (m *OrderMatch) EstimateTotalGasCost(ctx context.Context, resolver ChainResolver) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, chainID := range m.InvolvedChains() {
		chain, err := resolver.GetChain(chainID)
		if err != nil {
			return decimal.Zero, err
		}
		fee, err := chain.EstimateGasFee(ctx, OpFillOrder)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(fee)
	}
	return total, nil
}

// MarkGasChecked gas 检查通过
func (m *OrderMatch) MarkGasChecked() error {
	return m.transition(MatchStatusCreated, MatchStatusGasChecked)
}

// Reject gas 检查未通过，撮合被拒绝
func (m *OrderMatch) Reject(reason string) error {
	if err := m.transition(MatchStatusGasChecked, MatchStatusRejected); err != nil {
		return err
	}
	m.Reason = reason
	return nil
}

// BeginLocking 进入资产锁定阶段
func (m *OrderMatch) BeginLocking() error {
	return m.transition(MatchStatusGasChecked, MatchStatusLocking)
}

// BeginProofing 进入证明生成阶段
func (m *OrderMatch) BeginProofing() error {
	return m.transition(MatchStatusLocking, MatchStatusProofing)
}

// BeginReleasing 进入资产释放阶段
func (m *OrderMatch) BeginReleasing() error {
	return m.transition(MatchStatusProofing, MatchStatusReleasing)
}

// Settle 结算完成
func (m *OrderMatch) Settle() error {
	return m.transition(MatchStatusReleasing, MatchStatusSettled)
}

// BeginRollback 结算失败，进入回滚
func (m *OrderMatch) BeginRollback(reason string) error {
	switch m.Status {
	case MatchStatusLocking, MatchStatusProofing, MatchStatusReleasing:
		m.Status = MatchStatusRollingBack
		m.Reason = reason
		return nil
	}
	return fmt.Errorf("invalid status %s for rollback of match %s", m.Status, m.MatchID)
}

// FailRollback 回滚结束，撮合终态为 FAILED
func (m *OrderMatch) FailRollback() error {
	return m.transition(MatchStatusRollingBack, MatchStatusFailed)
}

func (m *OrderMatch) transition(from, to MatchStatus) error {
	if m.Status != from {
		return fmt.Errorf("invalid status %s for transition to %s of match %s", m.Status, to, m.MatchID)
	}
	m.Status = to
	return nil
}

// EncodeFills 将成交分配序列化到 FillsJSON，供持久化使用
func (m *OrderMatch) EncodeFills() error {
	data, err := json.Marshal(m.Fills)
	if err != nil {
		return fmt.Errorf("failed to encode fills of match %s: %w", m.MatchID, err)
	}
	m.FillsJSON = string(data)
	return nil
}

// DecodeFills 从 FillsJSON 恢复成交分配，Order 指针不恢复
func (m *OrderMatch) DecodeFills() error {
	if m.FillsJSON == "" {
		m.Fills = nil
		return nil
	}
	if err := json.Unmarshal([]byte(m.FillsJSON), &m.Fills); err != nil {
		return fmt.Errorf("failed to decode fills of match %s: %w", m.MatchID, err)
	}
	return nil
}

// MatchRepository 撮合仓储接口
type MatchRepository interface {
	Save(ctx context.Context, match *OrderMatch) error
	Update(ctx context.Context, match *OrderMatch) error
	GetByMatchID(ctx context.Context, matchID string) (*OrderMatch, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*OrderMatch, error)
}
