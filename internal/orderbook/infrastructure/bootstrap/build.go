package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/application"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/bridge/evm"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/gas"
)

// System 组装完成的订单簿核心组件
type System struct {
	Book       *domain.MultiChainOrderBook
	Bridges    *domain.BridgeRegistry
	Estimator  *gas.CachedEstimator
	Settlement domain.SettlementConfig
	Health     *application.HealthMonitor
}

// Build 按配置注册链、资产与桥，返回可用的系统组件
func Build(cfg *Config, logger *slog.Logger) (*System, error) {
	ttl := time.Duration(cfg.GasCacheTTLSeconds) * time.Second
	estimator := gas.NewCachedEstimator(ttl, logger)

	settlement := domain.DefaultSettlementConfig()
	settlement.MaxGasPercent = cfg.Settlement.MaxGasPercent
	settlement.PartialFillPolicy = domain.PartialFillPolicy(cfg.Settlement.PartialFillPolicy)
	settlement.MaxBridgeRetries = cfg.Settlement.MaxBridgeRetries
	settlement.RetryBackoff = time.Duration(cfg.Settlement.RetryBackoffMs) * time.Millisecond

	health := application.NewHealthMonitor(time.Duration(cfg.HealthIntervalSeconds)*time.Second, logger)
	book := domain.NewMultiChainOrderBook()

	blockTimes := make(map[string]time.Duration, len(cfg.Chains))
	for _, chainCfg := range cfg.Chains {
		price, err := decimal.NewFromString(chainCfg.GasPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid gas_price for chain %s: %w", chainCfg.ID, err)
		}
		estimator.RegisterFetcher(chainCfg.ID, gas.StaticFetcher(price))

		blockTime := time.Duration(chainCfg.BlockTimeMs) * time.Millisecond
		blockTimes[chainCfg.ID] = blockTime
		chain, err := domain.NewBlockchain(chainCfg.ID, chainCfg.Name, blockTime, estimator)
		if err != nil {
			return nil, err
		}
		if err := book.RegisterChain(chain); err != nil {
			return nil, err
		}
		health.RegisterChain(chain)

		if chainCfg.Confirmations > 0 {
			settlement.Confirmations[chainCfg.ID] = chainCfg.Confirmations
		}
		if chainCfg.BridgeTimeoutSeconds > 0 {
			settlement.BridgeTimeouts[chainCfg.ID] = time.Duration(chainCfg.BridgeTimeoutSeconds) * time.Second
		}
	}

	for _, assetCfg := range cfg.Assets {
		asset, err := domain.NewAsset(assetCfg.ID, assetCfg.Symbol, assetCfg.Name, assetCfg.Decimals)
		if err != nil {
			return nil, err
		}
		for chainID, address := range assetCfg.Addresses {
			if err := asset.RegisterAddress(chainID, address); err != nil {
				return nil, err
			}
		}
		if err := book.RegisterAsset(asset); err != nil {
			return nil, err
		}
	}

	registry := domain.NewBridgeRegistry()
	for _, bridgeCfg := range cfg.Bridges {
		bridge := evm.NewBridge(bridgeCfg.Name, logger)
		if bridgeCfg.FeeRate != "" && bridgeCfg.MinFee != "" {
			rate, err := decimal.NewFromString(bridgeCfg.FeeRate)
			if err != nil {
				return nil, fmt.Errorf("invalid fee_rate for bridge %s: %w", bridgeCfg.Name, err)
			}
			min, err := decimal.NewFromString(bridgeCfg.MinFee)
			if err != nil {
				return nil, fmt.Errorf("invalid min_fee for bridge %s: %w", bridgeCfg.Name, err)
			}
			bridge.SetFee(rate, min)
		}

		var probe domain.ChainPair
		for i, rawPair := range bridgeCfg.Pairs {
			pair := domain.ChainPair{SourceChainID: rawPair[0], DestChainID: rawPair[1]}
			bridge.AddChainPair(pair)
			if err := registry.Register(pair, bridge); err != nil {
				return nil, err
			}
			for _, chainID := range rawPair {
				bridge.SetChainBlockTime(chainID, blockTimes[chainID])
				bridge.SetRequiredConfirmations(chainID, settlement.ConfirmationsFor(chainID))
			}
			if i == 0 {
				probe = pair
			}
		}
		health.RegisterBridge(bridge, probe)
	}

	settlement.Normalize()
	return &System{
		Book:       book,
		Bridges:    registry,
		Estimator:  estimator,
		Settlement: settlement,
		Health:     health,
	}, nil
}
