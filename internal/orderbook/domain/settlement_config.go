package domain

import "time"

// PartialFillPolicy 流动性不足时对 taker 的处理策略
type PartialFillPolicy string

const (
	// PolicyReject 拒绝整笔订单，不做任何状态修改
	PolicyReject PartialFillPolicy = "REJECT"
	// PolicyPartialFill 结算已获得的部分成交
	PolicyPartialFill PartialFillPolicy = "PARTIAL_FILL"
	// PolicyConvertToMaker 结算部分成交后，剩余量转为 maker 挂单
	PolicyConvertToMaker PartialFillPolicy = "CONVERT_TO_MAKER"
)

// 默认结算参数
const (
	DefaultMaxGasPercent    = 0.05
	DefaultConfirmations    = 6
	DefaultBridgeTimeout    = 2 * time.Minute
	DefaultMaxBridgeRetries = 3
	DefaultRetryBackoff     = 500 * time.Millisecond
)

// SettlementConfig 跨链结算参数，全部通过配置注入
type SettlementConfig struct {
	// gas 成本占成交价值的最大允许比例
	MaxGasPercent float64
	// 各链所需确认数，未配置的链使用 DefaultConfirmations
	Confirmations map[string]int
	// 各链桥操作超时，未配置的链使用 DefaultBridgeTimeout
	BridgeTimeouts map[string]time.Duration
	// 流动性不足时的处理策略
	PartialFillPolicy PartialFillPolicy
	// 瞬时桥错误的最大重试次数
	MaxBridgeRetries int
	// 重试初始退避
	RetryBackoff time.Duration
}

// DefaultSettlementConfig 返回带默认值的结算配置
func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		MaxGasPercent:     DefaultMaxGasPercent,
		Confirmations:     make(map[string]int),
		BridgeTimeouts:    make(map[string]time.Duration),
		PartialFillPolicy: PolicyReject,
		MaxBridgeRetries:  DefaultMaxBridgeRetries,
		RetryBackoff:      DefaultRetryBackoff,
	}
}

// Normalize 填充缺省字段
func (c *SettlementConfig) Normalize() {
	if c.MaxGasPercent <= 0 {
		c.MaxGasPercent = DefaultMaxGasPercent
	}
	if c.Confirmations == nil {
		c.Confirmations = make(map[string]int)
	}
	if c.BridgeTimeouts == nil {
		c.BridgeTimeouts = make(map[string]time.Duration)
	}
	if c.PartialFillPolicy == "" {
		c.PartialFillPolicy = PolicyReject
	}
	if c.MaxBridgeRetries <= 0 {
		c.MaxBridgeRetries = DefaultMaxBridgeRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
}

// ConfirmationsFor 返回链所需确认数
func (c *SettlementConfig) ConfirmationsFor(chainID string) int {
	if n, ok := c.Confirmations[chainID]; ok && n > 0 {
		return n
	}
	return DefaultConfirmations
}

// TimeoutFor 返回链的桥操作超时
func (c *SettlementConfig) TimeoutFor(chainID string) time.Duration {
	if d, ok := c.BridgeTimeouts[chainID]; ok && d > 0 {
		return d
	}
	return DefaultBridgeTimeout
}
