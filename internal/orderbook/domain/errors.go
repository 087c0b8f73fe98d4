package domain

import (
	"fmt"
	"time"
)

// ValidationError 参数校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError 创建校验错误
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UnknownEntityError 引用了未注册的链或资产
type UnknownEntityError struct {
	Kind string
	ID   string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.Kind, e.ID)
}

// InsufficientLiquidityError 订单簿流动性不足
type InsufficientLiquidityError struct {
	PairKey   PairKey
	Requested string
	Available string
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient liquidity for %s: requested %s, available %s",
		e.PairKey, e.Requested, e.Available)
}

// ProfitabilityError 跨链 gas 成本超出允许占比，撮合被拒绝
type ProfitabilityError struct {
	MatchID    string
	GasCost    string
	TradeValue string
	MaxPercent float64
}

func (e *ProfitabilityError) Error() string {
	return fmt.Sprintf("match %s not profitable: gas cost %s exceeds %.2f%% of trade value %s",
		e.MatchID, e.GasCost, e.MaxPercent*100, e.TradeValue)
}

// BridgeError 桥操作失败
type BridgeError struct {
	Op      string
	ChainID string
	Timeout bool
	Err     error
}

func (e *BridgeError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("bridge %s on chain %s timed out: %v", e.Op, e.ChainID, e.Err)
	}
	return fmt.Sprintf("bridge %s on chain %s failed: %v", e.Op, e.ChainID, e.Err)
}

func (e *BridgeError) Unwrap() error { return e.Err }

// IsTimeout 是否为超时类错误
func (e *BridgeError) IsTimeout() bool { return e.Timeout }

// UnlockFailure 回滚阶段单笔解锁失败记录
type UnlockFailure struct {
	ChainID string
	TxHash  string
	Err     error
}

// ReconciliationError 结算与账面状态出现偏差，需要人工对账
// 回滚未能完全补偿时携带解锁失败明细，结算后落账失败时携带原因描述
type ReconciliationError struct {
	MatchID  string
	Reason   string
	Failures []UnlockFailure
	At       time.Time
}

func (e *ReconciliationError) Error() string {
	if len(e.Failures) > 0 {
		return fmt.Sprintf("rollback of match %s left %d locks unreleased, manual reconciliation required",
			e.MatchID, len(e.Failures))
	}
	return fmt.Sprintf("match %s requires manual reconciliation: %s", e.MatchID, e.Reason)
}
