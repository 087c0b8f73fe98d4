// Package bootstrap 加载领域配置并组装订单簿系统
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ChainConfig 链配置
type ChainConfig struct {
	ID                   string `mapstructure:"id"`
	Name                 string `mapstructure:"name"`
	BlockTimeMs          int    `mapstructure:"block_time_ms"`
	GasPrice             string `mapstructure:"gas_price"`
	Confirmations        int    `mapstructure:"confirmations"`
	BridgeTimeoutSeconds int    `mapstructure:"bridge_timeout_seconds"`
}

// AssetConfig 资产配置
type AssetConfig struct {
	ID        string            `mapstructure:"id"`
	Symbol    string            `mapstructure:"symbol"`
	Name      string            `mapstructure:"name"`
	Decimals  int               `mapstructure:"decimals"`
	Addresses map[string]string `mapstructure:"addresses"`
}

// BridgeConfig 桥配置
type BridgeConfig struct {
	Name    string     `mapstructure:"name"`
	FeeRate string     `mapstructure:"fee_rate"`
	MinFee  string     `mapstructure:"min_fee"`
	Pairs   [][]string `mapstructure:"pairs"`
}

// SettlementSection 结算参数配置
type SettlementSection struct {
	MaxGasPercent     float64 `mapstructure:"max_gas_percent"`
	PartialFillPolicy string  `mapstructure:"partial_fill_policy"`
	MaxBridgeRetries  int     `mapstructure:"max_bridge_retries"`
	RetryBackoffMs    int     `mapstructure:"retry_backoff_ms"`
}

// Config 订单簿领域配置
type Config struct {
	SnapshotDepth         int               `mapstructure:"snapshot_depth"`
	AsyncSettlement       bool              `mapstructure:"async_settlement"`
	GasCacheTTLSeconds    int               `mapstructure:"gas_cache_ttl_seconds"`
	HealthIntervalSeconds int               `mapstructure:"health_interval_seconds"`
	Chains                []ChainConfig     `mapstructure:"chains"`
	Assets                []AssetConfig     `mapstructure:"assets"`
	Bridges               []BridgeConfig    `mapstructure:"bridges"`
	Settlement            SettlementSection `mapstructure:"settlement"`
}

// LoadConfig 从 TOML 文件的 [orderbook] 小节加载领域配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.UnmarshalKey("orderbook", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal orderbook config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("orderbook config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if len(c.Chains) == 0 {
		return fmt.Errorf("at least one chain is required")
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	chainIDs := make(map[string]struct{}, len(c.Chains))
	for _, chain := range c.Chains {
		if chain.ID == "" {
			return fmt.Errorf("chain id must not be empty")
		}
		if _, dup := chainIDs[chain.ID]; dup {
			return fmt.Errorf("duplicate chain id %s", chain.ID)
		}
		chainIDs[chain.ID] = struct{}{}
		if chain.GasPrice == "" {
			return fmt.Errorf("chain %s requires a gas_price", chain.ID)
		}
	}
	for _, bridge := range c.Bridges {
		for _, pair := range bridge.Pairs {
			if len(pair) != 2 {
				return fmt.Errorf("bridge %s has a malformed chain pair", bridge.Name)
			}
			for _, chainID := range pair {
				if _, ok := chainIDs[chainID]; !ok {
					return fmt.Errorf("bridge %s references unknown chain %s", bridge.Name, chainID)
				}
			}
		}
	}
	return nil
}
