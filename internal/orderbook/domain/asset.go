package domain

import "sync"

// Asset 跨链资产，同一资产可以部署在多条链上
type Asset struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`

	mu        sync.RWMutex
	addresses map[string]string
}

// NewAsset 创建资产
func NewAsset(id, symbol, name string, decimals int) (*Asset, error) {
	if id == "" {
		return nil, NewValidationError("id", "must not be empty")
	}
	if symbol == "" {
		return nil, NewValidationError("symbol", "must not be empty")
	}
	if decimals < 0 {
		return nil, NewValidationError("decimals", "must not be negative")
	}
	return &Asset{
		ID:        id,
		Symbol:    symbol,
		Name:      name,
		Decimals:  decimals,
		addresses: make(map[string]string),
	}, nil
}

// RegisterAddress 登记资产在某条链上的合约地址，地址只增不改
func (a *Asset) RegisterAddress(chainID, address string) error {
	if chainID == "" {
		return NewValidationError("chain_id", "must not be empty")
	}
	if address == "" {
		return NewValidationError("address", "must not be empty")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.addresses[chainID]; ok && existing != address {
		return NewValidationError("address", "already registered with a different value for chain "+chainID)
	}
	a.addresses[chainID] = address
	return nil
}

// AddressOn 返回资产在指定链上的合约地址
func (a *Asset) AddressOn(chainID string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	addr, ok := a.addresses[chainID]
	return addr, ok
}

// SupportedChains 返回已登记地址的链 ID 列表
func (a *Asset) SupportedChains() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	chains := make([]string, 0, len(a.addresses))
	for chainID := range a.addresses {
		chains = append(chains, chainID)
	}
	return chains
}
