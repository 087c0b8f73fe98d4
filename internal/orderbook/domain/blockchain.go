package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OperationType 链上操作类型，决定 gas limit
type OperationType string

const (
	OpPlaceOrder    OperationType = "PLACE_ORDER"
	OpCancelOrder   OperationType = "CANCEL_ORDER"
	OpFillOrder     OperationType = "FILL_ORDER"
	OpTransferAsset OperationType = "TRANSFER_ASSET"
)

// ExecutionPriority 交易执行优先级，影响 gas price 倍率
type ExecutionPriority string

const (
	PriorityFast     ExecutionPriority = "FAST_EXECUTION"
	PriorityStandard ExecutionPriority = "STANDARD"
	PriorityEconomic ExecutionPriority = "ECONOMIC"
)

// Multiplier 返回优先级对应的 gas price 倍率
func (p ExecutionPriority) Multiplier() decimal.Decimal {
	switch p {
	case PriorityFast:
		return decimal.NewFromFloat(1.5)
	case PriorityEconomic:
		return decimal.NewFromFloat(0.8)
	default:
		return decimal.NewFromInt(1)
	}
}

// gasLimits 各操作类型的 gas limit
var gasLimits = map[OperationType]int64{
	OpPlaceOrder:    120000,
	OpCancelOrder:   80000,
	OpFillOrder:     180000,
	OpTransferAsset: 65000,
}

// defaultGasLimit 未知操作类型的兜底值
const defaultGasLimit int64 = 100000

// GasLimitFor 返回操作类型对应的 gas limit
func GasLimitFor(op OperationType) int64 {
	if limit, ok := gasLimits[op]; ok {
		return limit
	}
	return defaultGasLimit
}

// gasSafetyMargin 费用估算安全余量
var gasSafetyMargin = decimal.NewFromFloat(1.10)

// GasPriceProvider 提供链上实时 gas price
type GasPriceProvider interface {
	// GetGasPrice 返回指定链在指定优先级下的 gas price
	GetGasPrice(ctx context.Context, chainID string, priority ExecutionPriority) (decimal.Decimal, error)
}

// Blockchain 区块链，身份由 ID 唯一确定
type Blockchain struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	BlockTime time.Duration `json:"block_time"`

	gasProvider GasPriceProvider
}

// NewBlockchain 创建区块链
func NewBlockchain(id, name string, blockTime time.Duration, provider GasPriceProvider) (*Blockchain, error) {
	if id == "" {
		return nil, NewValidationError("id", "must not be empty")
	}
	if blockTime <= 0 {
		return nil, NewValidationError("block_time", "must be positive")
	}
	if provider == nil {
		return nil, NewValidationError("gas_provider", "must not be nil")
	}
	return &Blockchain{
		ID:          id,
		Name:        name,
		BlockTime:   blockTime,
		gasProvider: provider,
	}, nil
}

// Equal 两条链是否为同一条，身份只看 ID
func (b *Blockchain) Equal(other *Blockchain) bool {
	if other == nil {
		return false
	}
	return b.ID == other.ID
}

// EstimateGasFee 估算指定操作在本链上的 gas 费用
// fee = gasPrice * gasLimit(op) * 1.10
func (b *Blockchain) EstimateGasFee(ctx context.Context, op OperationType) (decimal.Decimal, error) {
	gasPrice, err := b.gasProvider.GetGasPrice(ctx, b.ID, PriorityStandard)
	if err != nil {
		return decimal.Zero, err
	}
	limit := decimal.NewFromInt(GasLimitFor(op))
	return gasPrice.Mul(limit).Mul(gasSafetyMargin), nil
}
