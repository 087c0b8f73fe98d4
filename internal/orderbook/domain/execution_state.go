package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// LockedLeg 结算过程中一笔已完成的资产锁定
// 回滚时按此台账逐笔补偿解锁
type LockedLeg struct {
	ChainID  string
	AssetID  string
	Amount   decimal.Decimal
	Owner    string
	TxHash   string
	Bridge   Bridge
	LockedAt time.Time
}

// ExecutionState 单次结算尝试的回滚台账
// 随 LOCKING 阶段创建，进入终态后丢弃
type ExecutionState struct {
	MatchID   string
	StartedAt time.Time

	mu   sync.Mutex
	legs []LockedLeg
}

// NewExecutionState 创建结算回滚台账
func NewExecutionState(matchID string) *ExecutionState {
	return &ExecutionState{
		MatchID:   matchID,
		StartedAt: time.Now(),
	}
}

// RecordLock 记录一笔已落地的锁定，必须在下一条腿开始前调用
func (s *ExecutionState) RecordLock(leg LockedLeg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	leg.LockedAt = time.Now()
	s.legs = append(s.legs, leg)
}

// Legs 返回台账快照
func (s *ExecutionState) Legs() []LockedLeg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LockedLeg, len(s.legs))
	copy(out, s.legs)
	return out
}

// LockCount 已锁定的腿数
func (s *ExecutionState) LockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.legs)
}
