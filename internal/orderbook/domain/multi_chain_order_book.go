package domain

import (
	"sync"
	"time"
)

// MultiChainOrderBook 跨链订单簿根对象
// 持有链与资产注册表，并按交易对惰性创建订单簿
type MultiChainOrderBook struct {
	mu     sync.RWMutex
	chains map[string]*Blockchain
	assets map[string]*Asset
	books  map[PairKey]*OrderBookPair
}

// NewMultiChainOrderBook 创建跨链订单簿
func NewMultiChainOrderBook() *MultiChainOrderBook {
	return &MultiChainOrderBook{
		chains: make(map[string]*Blockchain),
		assets: make(map[string]*Asset),
		books:  make(map[PairKey]*OrderBookPair),
	}
}

// RegisterChain 注册区块链
func (m *MultiChainOrderBook) RegisterChain(chain *Blockchain) error {
	if chain == nil {
		return NewValidationError("chain", "must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[chain.ID] = chain
	return nil
}

// RegisterAsset 注册资产
func (m *MultiChainOrderBook) RegisterAsset(asset *Asset) error {
	if asset == nil {
		return NewValidationError("asset", "must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[asset.ID] = asset
	return nil
}

// GetChain 按 ID 查找已注册的链
func (m *MultiChainOrderBook) GetChain(chainID string) (*Blockchain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chain, ok := m.chains[chainID]
	if !ok {
		return nil, &UnknownEntityError{Kind: "chain", ID: chainID}
	}
	return chain, nil
}

// GetAsset 按 ID 查找已注册的资产
func (m *MultiChainOrderBook) GetAsset(assetID string) (*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	asset, ok := m.assets[assetID]
	if !ok {
		return nil, &UnknownEntityError{Kind: "asset", ID: assetID}
	}
	return asset, nil
}

// Chains 已注册链的快照
func (m *MultiChainOrderBook) Chains() []*Blockchain {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Blockchain, 0, len(m.chains))
	for _, c := range m.chains {
		out = append(out, c)
	}
	return out
}

// GetOrCreateOrderBook 按交易对键取订单簿，不存在则创建
// 幂等：同一个键永远返回同一个实例
func (m *MultiChainOrderBook) GetOrCreateOrderBook(key PairKey) (*OrderBookPair, error) {
	if err := m.validatePair(key); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if book, ok := m.books[key]; ok {
		return book, nil
	}
	book := NewOrderBookPair(key)
	m.books[key] = book
	return book, nil
}

// GetOrderBook 按交易对键查找订单簿，不存在返回 false
func (m *MultiChainOrderBook) GetOrderBook(key PairKey) (*OrderBookPair, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[key]
	return book, ok
}

// Books 所有订单簿的快照
func (m *MultiChainOrderBook) Books() []*OrderBookPair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*OrderBookPair, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b)
	}
	return out
}

// MatchTakerOrder 对 taker 订单做单遍价格时间优先分配
// 不修改任何订单状态，空撮合也会返回
func (m *MultiChainOrderBook) MatchTakerOrder(matchID string, taker *Order) (*OrderMatch, error) {
	if taker == nil {
		return nil, NewValidationError("taker", "must not be nil")
	}
	book, err := m.GetOrCreateOrderBook(taker.PairKey())
	if err != nil {
		return nil, err
	}
	return book.AllocateMatch(matchID, taker, time.Now())
}

// validatePair 校验交易对引用的链与资产均已注册
func (m *MultiChainOrderBook) validatePair(key PairKey) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.assets[key.BaseAssetID]; !ok {
		return &UnknownEntityError{Kind: "asset", ID: key.BaseAssetID}
	}
	if _, ok := m.assets[key.QuoteAssetID]; !ok {
		return &UnknownEntityError{Kind: "asset", ID: key.QuoteAssetID}
	}
	if _, ok := m.chains[key.BaseChainID]; !ok {
		return &UnknownEntityError{Kind: "chain", ID: key.BaseChainID}
	}
	if _, ok := m.chains[key.QuoteChainID]; !ok {
		return &UnknownEntityError{Kind: "chain", ID: key.QuoteChainID}
	}
	return nil
}
