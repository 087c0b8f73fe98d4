// Package evm 提供 EVM 系链的跨链桥实现
// 链交互为协议级模拟：锁定与释放生成真实格式的交易哈希，确认等待按链出块时间推进
package evm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// 默认手续费参数
var (
	defaultFeeRate = decimal.NewFromFloat(0.001)
	defaultMinFee  = decimal.NewFromFloat(0.0001)
)

// defaultBlockTime 未显式配置链出块时间时的模拟值
const defaultBlockTime = 20 * time.Millisecond

type lockRecord struct {
	req        domain.LockRequest
	lockedAt   time.Time
	unlocked   bool
	releasedTx string
}

// Bridge EVM 跨链桥
type Bridge struct {
	name    string
	feeRate decimal.Decimal
	minFee  decimal.Decimal
	logger  *slog.Logger
	nonce   atomic.Uint64

	mu            sync.RWMutex
	supported     map[domain.ChainPair]struct{}
	blockTimes    map[string]time.Duration
	confirmations map[string]int
	locks         map[string]*lockRecord
}

// NewBridge 创建 EVM 桥
func NewBridge(name string, logger *slog.Logger) *Bridge {
	return &Bridge{
		name:          name,
		feeRate:       defaultFeeRate,
		minFee:        defaultMinFee,
		logger:        logger.With("module", "evm_bridge", "bridge", name),
		supported:     make(map[domain.ChainPair]struct{}),
		blockTimes:    make(map[string]time.Duration),
		confirmations: make(map[string]int),
		locks:         make(map[string]*lockRecord),
	}
}

// AddChainPair 声明支持的跨链方向，正反双向
func (b *Bridge) AddChainPair(pair domain.ChainPair) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.supported[pair] = struct{}{}
	b.supported[pair.Reverse()] = struct{}{}
}

// SetChainBlockTime 配置链的模拟出块时间
func (b *Bridge) SetChainBlockTime(chainID string, blockTime time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blockTimes[chainID] = blockTime
}

// SetRequiredConfirmations 配置链的所需确认数
func (b *Bridge) SetRequiredConfirmations(chainID string, confirmations int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chainID] = confirmations
}

// SetFee 配置手续费率与最低手续费
func (b *Bridge) SetFee(rate, min decimal.Decimal) {
	b.feeRate = rate
	b.minFee = min
}

// Name 桥标识
func (b *Bridge) Name() string { return b.name }

// SupportsChainPair 是否支持指定方向
func (b *Bridge) SupportsChainPair(pair domain.ChainPair) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.supported[pair]
	return ok
}

// GetBridgeFee 手续费 = max(rate × amount, minFee)，以被转移资产计价
func (b *Bridge) GetBridgeFee(_ context.Context, pair domain.ChainPair, _ string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !b.SupportsChainPair(pair) {
		return decimal.Zero, &domain.BridgeError{
			Op:      "fee",
			ChainID: pair.SourceChainID,
			Err:     fmt.Errorf("chain pair %s->%s not supported by %s", pair.SourceChainID, pair.DestChainID, b.name),
		}
	}
	fee := amount.Mul(b.feeRate)
	if fee.LessThan(b.minFee) {
		fee = b.minFee
	}
	return fee, nil
}

// LockAssets 在源链锁定资产，返回锁定交易哈希
func (b *Bridge) LockAssets(ctx context.Context, req domain.LockRequest) (*domain.LockReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.BridgeError{Op: "lock", ChainID: req.ChainID, Timeout: true, Err: err}
	}
	if !req.Amount.IsPositive() {
		return nil, &domain.BridgeError{
			Op:      "lock",
			ChainID: req.ChainID,
			Err:     fmt.Errorf("lock amount %s must be positive", req.Amount),
		}
	}

	txHash := b.txHash("lock", req.ChainID, req.AssetID, req.Owner, req.Amount.String())

	b.mu.Lock()
	b.locks[txHash] = &lockRecord{req: req, lockedAt: time.Now()}
	b.mu.Unlock()

	b.logger.Debug("assets locked",
		"chain_id", req.ChainID,
		"asset_id", req.AssetID,
		"amount", req.Amount.String(),
		"tx_hash", txHash,
	)
	return &domain.LockReceipt{TxHash: txHash, ChainID: req.ChainID, LockedAt: time.Now()}, nil
}

// GenerateProof 等待锁定交易确认并生成锁定证明
// 等待时长 = 所需确认数 × 链出块时间，受 ctx 截止时间约束
func (b *Bridge) GenerateProof(ctx context.Context, chainID, lockTxHash string) (*domain.LockProof, error) {
	b.mu.RLock()
	record, ok := b.locks[lockTxHash]
	blockTime := b.blockTimes[chainID]
	confirmations := b.confirmations[chainID]
	b.mu.RUnlock()

	if !ok || record.req.ChainID != chainID {
		return nil, &domain.BridgeError{
			Op:      "proof",
			ChainID: chainID,
			Err:     fmt.Errorf("unknown lock tx %s on chain %s", lockTxHash, chainID),
		}
	}
	if blockTime <= 0 {
		blockTime = defaultBlockTime
	}
	if confirmations <= 0 {
		confirmations = 1
	}

	wait := time.Duration(confirmations) * blockTime
	select {
	case <-ctx.Done():
		return nil, &domain.BridgeError{Op: "proof", ChainID: chainID, Timeout: true, Err: ctx.Err()}
	case <-time.After(wait):
	}

	proofData := crypto.Keccak256([]byte(lockTxHash), []byte(chainID))
	return &domain.LockProof{
		LockTxHash:    lockTxHash,
		SourceChainID: chainID,
		ProofData:     proofData,
		GeneratedAt:   time.Now(),
	}, nil
}

// ReleaseAssets 凭锁定证明在目标链释放资产
func (b *Bridge) ReleaseAssets(ctx context.Context, req domain.ReleaseRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.BridgeError{Op: "release", ChainID: req.ChainID, Timeout: true, Err: err}
	}
	if req.Proof == nil {
		return "", &domain.BridgeError{
			Op:      "release",
			ChainID: req.ChainID,
			Err:     fmt.Errorf("release on chain %s requires a lock proof", req.ChainID),
		}
	}

	expected := crypto.Keccak256([]byte(req.Proof.LockTxHash), []byte(req.Proof.SourceChainID))
	if string(expected) != string(req.Proof.ProofData) {
		return "", &domain.BridgeError{
			Op:      "release",
			ChainID: req.ChainID,
			Err:     fmt.Errorf("invalid proof for lock tx %s", req.Proof.LockTxHash),
		}
	}

	releaseTx := b.txHash("release", req.ChainID, req.AssetID, req.Recipient, req.Amount.String())

	b.mu.Lock()
	if record, ok := b.locks[req.Proof.LockTxHash]; ok {
		record.releasedTx = releaseTx
	}
	b.mu.Unlock()

	b.logger.Debug("assets released",
		"chain_id", req.ChainID,
		"recipient", req.Recipient,
		"amount", req.Amount.String(),
		"tx_hash", releaseTx,
	)
	return releaseTx, nil
}

// UnlockAssets 补偿性解锁，已释放或未知的锁定不可解锁
func (b *Bridge) UnlockAssets(ctx context.Context, chainID, lockTxHash string) error {
	if err := ctx.Err(); err != nil {
		return &domain.BridgeError{Op: "unlock", ChainID: chainID, Timeout: true, Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.locks[lockTxHash]
	if !ok || record.req.ChainID != chainID {
		return &domain.BridgeError{
			Op:      "unlock",
			ChainID: chainID,
			Err:     fmt.Errorf("unknown lock tx %s on chain %s", lockTxHash, chainID),
		}
	}
	if record.releasedTx != "" {
		return &domain.BridgeError{
			Op:      "unlock",
			ChainID: chainID,
			Err:     fmt.Errorf("lock tx %s already released as %s", lockTxHash, record.releasedTx),
		}
	}
	if record.unlocked {
		return nil
	}
	record.unlocked = true

	b.logger.Debug("assets unlocked", "chain_id", chainID, "tx_hash", lockTxHash)
	return nil
}

// IsUnlocked 锁定是否已被补偿解锁，供对账与测试使用
func (b *Bridge) IsUnlocked(lockTxHash string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	record, ok := b.locks[lockTxHash]
	return ok && record.unlocked
}

// txHash 生成 EVM 格式的交易哈希
func (b *Bridge) txHash(parts ...string) string {
	nonce := b.nonce.Add(1)
	data := []byte(fmt.Sprintf("%s:%d:%d", b.name, nonce, time.Now().UnixNano()))
	for _, p := range parts {
		data = append(data, []byte(p)...)
	}
	return crypto.Keccak256Hash(data).Hex()
}
