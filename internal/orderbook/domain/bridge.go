package domain

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ChainPair 跨链方向对
type ChainPair struct {
	SourceChainID string `json:"source_chain_id"`
	DestChainID   string `json:"dest_chain_id"`
}

// Reverse 返回反向链对
func (p ChainPair) Reverse() ChainPair {
	return ChainPair{SourceChainID: p.DestChainID, DestChainID: p.SourceChainID}
}

// LockRequest 资产锁定请求
type LockRequest struct {
	ChainID string
	AssetID string
	Amount  decimal.Decimal
	Owner   string
}

// LockReceipt 资产锁定回执
type LockReceipt struct {
	TxHash   string    `json:"tx_hash"`
	ChainID  string    `json:"chain_id"`
	LockedAt time.Time `json:"locked_at"`
}

// LockProof 锁定证明，由源链上已确认的锁定交易生成
type LockProof struct {
	LockTxHash    string    `json:"lock_tx_hash"`
	SourceChainID string    `json:"source_chain_id"`
	ProofData     []byte    `json:"proof_data"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// ReleaseRequest 资产释放请求
type ReleaseRequest struct {
	ChainID   string
	AssetID   string
	Amount    decimal.Decimal
	Recipient string
	Proof     *LockProof
}

// Bridge 跨链桥能力接口
// 实现负责与链交互的全部细节，调用方只关心锁定/证明/释放/解锁四个动作
type Bridge interface {
	// Name 桥的标识
	Name() string
	// SupportsChainPair 是否支持指定方向的跨链
	SupportsChainPair(pair ChainPair) bool
	// GetBridgeFee 估算跨链手续费，以被转移资产计价
	GetBridgeFee(ctx context.Context, pair ChainPair, assetID string, amount decimal.Decimal) (decimal.Decimal, error)
	// LockAssets 在源链锁定资产
	LockAssets(ctx context.Context, req LockRequest) (*LockReceipt, error)
	// GenerateProof 等待锁定交易确认并生成证明
	GenerateProof(ctx context.Context, chainID, lockTxHash string) (*LockProof, error)
	// ReleaseAssets 凭证明在目标链释放资产
	ReleaseAssets(ctx context.Context, req ReleaseRequest) (string, error)
	// UnlockAssets 补偿性解锁源链上已锁定的资产
	UnlockAssets(ctx context.Context, chainID, lockTxHash string) error
}

// BridgeRegistry 按链对注册和解析桥，注册是双向的
type BridgeRegistry struct {
	mu      sync.RWMutex
	bridges map[ChainPair]Bridge
}

// NewBridgeRegistry 创建桥注册表
func NewBridgeRegistry() *BridgeRegistry {
	return &BridgeRegistry{bridges: make(map[ChainPair]Bridge)}
}

// Register 注册桥到指定链对，正反两个方向都登记
func (r *BridgeRegistry) Register(pair ChainPair, bridge Bridge) error {
	if bridge == nil {
		return NewValidationError("bridge", "must not be nil")
	}
	if pair.SourceChainID == "" || pair.DestChainID == "" {
		return NewValidationError("chain_pair", "both chain ids must be set")
	}
	if pair.SourceChainID == pair.DestChainID {
		return NewValidationError("chain_pair", "source and dest must differ")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bridges[pair] = bridge
	r.bridges[pair.Reverse()] = bridge
	return nil
}

// Resolve 解析链对对应的桥
func (r *BridgeRegistry) Resolve(pair ChainPair) (Bridge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bridge, ok := r.bridges[pair]
	if !ok {
		return nil, &UnknownEntityError{Kind: "bridge", ID: pair.SourceChainID + "->" + pair.DestChainID}
	}
	return bridge, nil
}

// Pairs 已注册的链对列表
func (r *BridgeRegistry) Pairs() []ChainPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pairs := make([]ChainPair, 0, len(r.bridges))
	for pair := range r.bridges {
		pairs = append(pairs, pair)
	}
	return pairs
}
