package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
)

// HealthState 单个组件的健康状态
type HealthState string

const (
	HealthUnknown   HealthState = "UNKNOWN"
	HealthHealthy   HealthState = "HEALTHY"
	HealthUnhealthy HealthState = "UNHEALTHY"
)

// ComponentHealth 组件健康详情
type ComponentHealth struct {
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	State     HealthState `json:"state"`
	Detail    string      `json:"detail,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// SystemHealthReport 系统健康报告
type SystemHealthReport struct {
	Healthy    bool              `json:"healthy"`
	Components []ComponentHealth `json:"components"`
	ReportedAt time.Time         `json:"reported_at"`
}

// HealthMonitor 周期性探测已注册链与桥的健康状态
// 链探测为 gas price 拉取，桥探测为链对支持性检查
type HealthMonitor struct {
	logger   *slog.Logger
	interval time.Duration

	mu      sync.RWMutex
	chains  map[string]*domain.Blockchain
	bridges map[string]bridgeProbe
	states  map[string]ComponentHealth
}

type bridgeProbe struct {
	bridge domain.Bridge
	pair   domain.ChainPair
}

// NewHealthMonitor 创建健康监控器
func NewHealthMonitor(interval time.Duration, log *slog.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthMonitor{
		logger:   log.With("module", "health_monitor"),
		interval: interval,
		chains:   make(map[string]*domain.Blockchain),
		bridges:  make(map[string]bridgeProbe),
		states:   make(map[string]ComponentHealth),
	}
}

// RegisterChain 纳入链的健康探测
func (h *HealthMonitor) RegisterChain(chain *domain.Blockchain) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chains[chain.ID] = chain
	h.states["chain:"+chain.ID] = ComponentHealth{Name: chain.ID, Kind: "chain", State: HealthUnknown}
}

// RegisterBridge 纳入桥的健康探测，以指定链对为探针
func (h *HealthMonitor) RegisterBridge(bridge domain.Bridge, pair domain.ChainPair) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridges[bridge.Name()] = bridgeProbe{bridge: bridge, pair: pair}
	h.states["bridge:"+bridge.Name()] = ComponentHealth{Name: bridge.Name(), Kind: "bridge", State: HealthUnknown}
}

// Run 周期执行健康检查，直到 ctx 取消
func (h *HealthMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.CheckAll(ctx)
		}
	}
}

// CheckAll 立即执行一轮全量检查
func (h *HealthMonitor) CheckAll(ctx context.Context) {
	h.mu.RLock()
	chains := make([]*domain.Blockchain, 0, len(h.chains))
	for _, c := range h.chains {
		chains = append(chains, c)
	}
	probes := make(map[string]bridgeProbe, len(h.bridges))
	for name, p := range h.bridges {
		probes[name] = p
	}
	h.mu.RUnlock()

	for _, chain := range chains {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := chain.EstimateGasFee(checkCtx, domain.OpTransferAsset)
		cancel()
		h.record("chain:"+chain.ID, ComponentHealth{
			Name:      chain.ID,
			Kind:      "chain",
			State:     stateOf(err),
			Detail:    detailOf(err),
			CheckedAt: time.Now(),
		})
	}

	for name, probe := range probes {
		var detail string
		state := HealthHealthy
		if !probe.bridge.SupportsChainPair(probe.pair) {
			state = HealthUnhealthy
			detail = "probe chain pair no longer supported"
		}
		h.record("bridge:"+name, ComponentHealth{
			Name:      name,
			Kind:      "bridge",
			State:     state,
			Detail:    detail,
			CheckedAt: time.Now(),
		})
	}
}

// Report 返回当前系统健康报告
func (h *HealthMonitor) Report() SystemHealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	report := SystemHealthReport{Healthy: true, ReportedAt: time.Now()}
	for _, state := range h.states {
		report.Components = append(report.Components, state)
		if state.State == HealthUnhealthy {
			report.Healthy = false
		}
	}
	return report
}

func (h *HealthMonitor) record(key string, health ComponentHealth) {
	h.mu.Lock()
	previous := h.states[key]
	h.states[key] = health
	h.mu.Unlock()

	if previous.State != health.State {
		h.logger.Info("component health changed",
			"component", key,
			"from", previous.State,
			"to", health.State,
			"detail", health.Detail,
		)
	}
}

func stateOf(err error) HealthState {
	if err != nil {
		return HealthUnhealthy
	}
	return HealthHealthy
}

func detailOf(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
