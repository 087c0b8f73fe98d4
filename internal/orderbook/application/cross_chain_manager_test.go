package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/gas"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/persistence/memory"
)

// fakeBridge 可注入故障的桥，记录各阶段调用次数
type fakeBridge struct {
	mu           sync.Mutex
	nonce        int
	lockCalls    int
	proofCalls   int
	releaseCalls int
	unlockCalls  int
	unlockedTxs  []string

	failLockOn int  // 第 n 次锁定失败，0 表示不失败
	failProof  bool // 所有证明失败
}

func (b *fakeBridge) Name() string { return "fake-bridge" }

func (b *fakeBridge) SupportsChainPair(_ domain.ChainPair) bool { return true }

func (b *fakeBridge) GetBridgeFee(_ context.Context, _ domain.ChainPair, _ string, _ decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (b *fakeBridge) LockAssets(_ context.Context, req domain.LockRequest) (*domain.LockReceipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lockCalls++
	if b.failLockOn > 0 && b.lockCalls >= b.failLockOn {
		return nil, &domain.BridgeError{Op: "lock", ChainID: req.ChainID, Err: fmt.Errorf("lock rejected")}
	}
	b.nonce++
	return &domain.LockReceipt{
		TxHash:   fmt.Sprintf("0xlock%d", b.nonce),
		ChainID:  req.ChainID,
		LockedAt: time.Now(),
	}, nil
}

func (b *fakeBridge) GenerateProof(_ context.Context, chainID, lockTxHash string) (*domain.LockProof, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.proofCalls++
	if b.failProof {
		return nil, &domain.BridgeError{Op: "proof", ChainID: chainID, Timeout: true, Err: context.DeadlineExceeded}
	}
	return &domain.LockProof{
		LockTxHash:    lockTxHash,
		SourceChainID: chainID,
		ProofData:     []byte(lockTxHash),
		GeneratedAt:   time.Now(),
	}, nil
}

func (b *fakeBridge) ReleaseAssets(_ context.Context, req domain.ReleaseRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseCalls++
	b.nonce++
	return fmt.Sprintf("0xrelease%d", b.nonce), nil
}

func (b *fakeBridge) UnlockAssets(_ context.Context, _, lockTxHash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unlockCalls++
	b.unlockedTxs = append(b.unlockedTxs, lockTxHash)
	return nil
}

// capturePublisher 记录发出的事件主题
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *capturePublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *capturePublisher) published(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type fixture struct {
	manager  *CrossChainManager
	book     *domain.MultiChainOrderBook
	bridge   *fakeBridge
	registry *domain.BridgeRegistry
	cfg      domain.SettlementConfig
	log      *slog.Logger
	orders   *memory.OrderRepository
	matches  *memory.MatchRepository
	pub      *capturePublisher
}

// newFixture 组装同步结算的编排器
// gasPrice 决定 gas 闸门是否触发：极小的价格放行，价格 1 则必然拒绝
func newFixture(t *testing.T, gasPrice decimal.Decimal, policy domain.PartialFillPolicy) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	estimator := gas.NewCachedEstimator(time.Minute, log)
	book := domain.NewMultiChainOrderBook()
	for _, id := range []string{"ethereum", "bsc"} {
		estimator.RegisterFetcher(id, gas.StaticFetcher(gasPrice))
		chain, err := domain.NewBlockchain(id, id, time.Millisecond, estimator)
		require.NoError(t, err)
		require.NoError(t, book.RegisterChain(chain))
	}
	for _, id := range []string{"usdc", "weth"} {
		asset, err := domain.NewAsset(id, id, id, 18)
		require.NoError(t, err)
		require.NoError(t, book.RegisterAsset(asset))
	}

	bridge := &fakeBridge{}
	registry := domain.NewBridgeRegistry()
	require.NoError(t, registry.Register(
		domain.ChainPair{SourceChainID: "ethereum", DestChainID: "bsc"}, bridge))

	cfg := domain.DefaultSettlementConfig()
	cfg.PartialFillPolicy = policy
	cfg.MaxBridgeRetries = 1
	cfg.RetryBackoff = time.Millisecond
	cfg.BridgeTimeouts = map[string]time.Duration{"ethereum": time.Second, "bsc": time.Second}

	orders := memory.NewOrderRepository()
	matches := memory.NewMatchRepository()
	pub := &capturePublisher{}
	manager := NewCrossChainManager(book, registry, orders, matches, pub, cfg, log)

	return &fixture{
		manager:  manager,
		book:     book,
		bridge:   bridge,
		registry: registry,
		cfg:      cfg,
		log:      log,
		orders:   orders,
		matches:  matches,
		pub:      pub,
	}
}

func cmd(maker, side, amount, price string) PlaceOrderCommand {
	return PlaceOrderCommand{
		Maker:        maker,
		Side:         side,
		BaseAssetID:  "usdc",
		BaseChainID:  "ethereum",
		QuoteAssetID: "weth",
		QuoteChainID: "bsc",
		Amount:       amount,
		Price:        price,
	}
}

// 放行 gas 闸门的极小价格
var tinyGasPrice = decimal.NewFromFloat(0.000000001)

func TestSettlementEndToEnd(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	result, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "3", "10"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.FillCount)
	assert.Equal(t, string(domain.MatchStatusSettled), result.MatchStatus)
	assert.Equal(t, "3", result.TotalFilled)

	// 每笔成交两条腿：基础资产与计价资产各锁定、证明、释放一次
	assert.Equal(t, 2, f.bridge.lockCalls)
	assert.Equal(t, 2, f.bridge.proofCalls)
	assert.Equal(t, 2, f.bridge.releaseCalls)
	assert.Equal(t, 0, f.bridge.unlockCalls)

	assert.Equal(t, domain.OrderStatusPartiallyFilled, maker.Status)
	assert.True(t, maker.FilledAmount.Equal(decimal.NewFromInt(3)))

	taker, err := f.orders.GetByOrderID(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, taker.Status)

	match, err := f.matches.GetByMatchID(ctx, result.MatchID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusSettled, match.Status)

	assert.Equal(t, 2, f.pub.published(domain.TopicOrderCreated))
	assert.Equal(t, 2, f.pub.published(domain.TopicOrderFilled))
	assert.Equal(t, 1, f.pub.published(domain.TopicTradeCompleted))
}

func TestFullyFilledMakerLeavesBook(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	_, err = f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "5", "10"))
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusFilled, maker.Status)
	book, ok := f.book.GetOrderBook(maker.PairKey())
	require.True(t, ok)
	assert.Empty(t, book.Snapshot(10).Asks, "filled maker must be removed from the book")
}

func TestGasGateRejectsWithoutTouchingBridges(t *testing.T) {
	// 价格 1 时单链手续费即远超成交价值的 5%
	f := newFixture(t, decimal.NewFromInt(1), domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	_, err = f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "3", "10"))
	var profitErr *domain.ProfitabilityError
	require.ErrorAs(t, err, &profitErr)

	assert.Equal(t, 0, f.bridge.lockCalls, "gas gate must reject before any bridge call")
	assert.Equal(t, 0, f.bridge.unlockCalls)

	// maker 不受影响，预留量归还，仍在簿中可撮合
	assert.Equal(t, domain.OrderStatusActive, maker.Status)
	assert.True(t, maker.FilledAmount.IsZero())
	assert.True(t, maker.AvailableAmount().Equal(decimal.NewFromInt(5)))

	matches, err := f.matches.ListByOrderID(ctx, maker.OrderID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchStatusRejected, matches[0].Status)
}

func TestProofFailureRollsBackAllLockedLegs(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	f.bridge.failProof = true
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	_, err = f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "3", "10"))
	var bridgeErr *domain.BridgeError
	require.ErrorAs(t, err, &bridgeErr)
	assert.True(t, bridgeErr.IsTimeout())

	assert.Equal(t, 2, f.bridge.lockCalls)
	assert.Equal(t, 2, f.bridge.unlockCalls, "every locked leg must be unlocked")
	assert.Equal(t, 0, f.bridge.releaseCalls)

	// 回滚后订单状态与成交量保持原样，预留量归还
	assert.Equal(t, domain.OrderStatusActive, maker.Status)
	assert.True(t, maker.FilledAmount.IsZero())
	assert.True(t, maker.AvailableAmount().Equal(decimal.NewFromInt(5)))

	matches, err := f.matches.ListByOrderID(ctx, maker.OrderID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchStatusFailed, matches[0].Status)
	assert.Equal(t, 1, f.pub.published(domain.TopicMatchFailed))
}

func TestLockFailureUnlocksOnlyLockedLegs(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	f.bridge.failLockOn = 2
	ctx := context.Background()

	_, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	_, err = f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "3", "10"))
	require.Error(t, err)

	require.Len(t, f.bridge.unlockedTxs, 1, "only the first leg was locked")
	assert.Equal(t, "0xlock1", f.bridge.unlockedTxs[0])
	assert.Equal(t, 0, f.bridge.releaseCalls)
}

func TestRejectPolicyOnShortfall(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "2", "10"))
	require.NoError(t, err)

	_, err = f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "5", "10"))
	var liqErr *domain.InsufficientLiquidityError
	require.ErrorAs(t, err, &liqErr)
	assert.Equal(t, "5", liqErr.Requested)
	assert.Equal(t, "2", liqErr.Available)

	assert.Equal(t, 0, f.bridge.lockCalls)
	assert.Equal(t, domain.OrderStatusActive, maker.Status)
	assert.True(t, maker.FilledAmount.IsZero())
	assert.True(t, maker.AvailableAmount().Equal(decimal.NewFromInt(2)), "rejected taker must return reserved liquidity")
}

func TestConvertToMakerRestsRemainder(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyConvertToMaker)
	ctx := context.Background()

	_, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "2", "10"))
	require.NoError(t, err)

	result, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "5", "10"))
	require.NoError(t, err)
	assert.Equal(t, "2", result.TotalFilled)
	assert.Equal(t, string(domain.OrderStatusPartiallyFilled), result.Status)

	taker, err := f.orders.GetByOrderID(ctx, result.OrderID)
	require.NoError(t, err)
	assert.True(t, taker.RemainingAmount().Equal(decimal.NewFromInt(3)))

	book, ok := f.book.GetOrderBook(taker.PairKey())
	require.True(t, ok)
	snapshot := book.Snapshot(10)
	require.Len(t, snapshot.Bids, 1, "taker remainder must rest as a bid")
	assert.True(t, snapshot.Bids[0].Amount.Equal(decimal.NewFromInt(3)))
}

func TestConvertToMakerOnEmptyBook(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyConvertToMaker)
	ctx := context.Background()

	result, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "5", "10"))
	require.NoError(t, err)
	assert.Empty(t, result.MatchID, "no match when nothing crosses")

	taker, err := f.orders.GetByOrderID(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusActive, taker.Status)

	book, ok := f.book.GetOrderBook(taker.PairKey())
	require.True(t, ok)
	assert.Len(t, book.Snapshot(10).Bids, 1)
}

func TestRejectPolicyOnEmptyBook(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	_, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "5", "10"))
	var liqErr *domain.InsufficientLiquidityError
	require.ErrorAs(t, err, &liqErr)
	assert.Equal(t, "0", liqErr.Available)
}

func TestMakerCancelledBeforeLockTriggersRollback(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	taker, err := domain.NewOrder("T1", "0xbuyer", domain.SideBuy,
		"usdc", "ethereum", "weth", "bsc", decimal.NewFromInt(3), decimal.NewFromInt(10), nil)
	require.NoError(t, err)
	require.NoError(t, taker.Activate())

	match, err := f.book.MatchTakerOrder("MATCHX", taker)
	require.NoError(t, err)
	require.False(t, match.IsEmpty())

	// 撮合与锁定之间挂单被取消
	_, err = f.manager.CancelOrder(ctx, maker.OrderID)
	require.NoError(t, err)

	err = f.manager.ExecuteMatch(ctx, match)
	var bridgeErr *domain.BridgeError
	require.ErrorAs(t, err, &bridgeErr)

	assert.Equal(t, 0, f.bridge.lockCalls, "lock-time recheck fires before the bridge")
	assert.Equal(t, domain.MatchStatusFailed, match.Status)
	assert.True(t, taker.FilledAmount.IsZero())
}

func TestCancelOrderRemovesFromBook(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	cancelled, err := f.manager.CancelOrder(ctx, maker.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	book, ok := f.book.GetOrderBook(maker.PairKey())
	require.True(t, ok)
	assert.Empty(t, book.Snapshot(10).Asks)

	// 再次取消与取消不存在的订单都报错
	_, err = f.manager.CancelOrder(ctx, maker.OrderID)
	assert.Error(t, err)
	_, err = f.manager.CancelOrder(ctx, "ORD-missing")
	var unknown *domain.UnknownEntityError
	assert.ErrorAs(t, err, &unknown)
}

func TestProcessTakerOrderValidation(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	bad := cmd("0xbuyer", "BUY", "not-a-number", "10")
	_, err := f.manager.ProcessTakerOrder(ctx, bad)
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	unknownAsset := cmd("0xbuyer", "BUY", "1", "10")
	unknownAsset.BaseAssetID = "doge"
	_, err = f.manager.ProcessTakerOrder(ctx, unknownAsset)
	var unknown *domain.UnknownEntityError
	assert.ErrorAs(t, err, &unknown)
}

func TestAsyncSettlementCompletesBeforeWaitReturns(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	f.manager.EnableAsyncSettlement()
	ctx := context.Background()

	_, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	result, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "3", "10"))
	require.NoError(t, err)
	f.manager.Wait()

	match, err := f.matches.GetByMatchID(ctx, result.MatchID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusSettled, match.Status)
	assert.Equal(t, 2, f.bridge.releaseCalls)
}

func TestInFlightMatchNeverDoubleAllocates(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	takerA, err := domain.NewOrder("TA", "0xbuyer-a", domain.SideBuy,
		"usdc", "ethereum", "weth", "bsc", decimal.NewFromInt(5), decimal.NewFromInt(10), nil)
	require.NoError(t, err)
	require.NoError(t, takerA.Activate())
	takerB, err := domain.NewOrder("TB", "0xbuyer-b", domain.SideBuy,
		"usdc", "ethereum", "weth", "bsc", decimal.NewFromInt(5), decimal.NewFromInt(10), nil)
	require.NoError(t, err)
	require.NoError(t, takerB.Activate())

	matchA, err := f.book.MatchTakerOrder("MATCH-A", takerA)
	require.NoError(t, err)
	require.True(t, matchA.TotalFillAmount().Equal(decimal.NewFromInt(5)))

	// A 尚未结算，同一 maker 的流动性对 B 不可见
	matchB, err := f.book.MatchTakerOrder("MATCH-B", takerB)
	require.NoError(t, err)
	assert.True(t, matchB.IsEmpty(), "in-flight liquidity must not be allocated twice")
	assert.True(t, maker.AvailableAmount().IsZero())

	require.NoError(t, f.matches.Save(ctx, matchA))
	require.NoError(t, f.manager.ExecuteMatch(ctx, matchA))

	assert.Equal(t, domain.OrderStatusFilled, maker.Status)
	assert.True(t, maker.FilledAmount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 2, f.bridge.lockCalls, "only one match worth of legs may reach the bridge")
	assert.Equal(t, 2, f.bridge.releaseCalls)
	assert.Equal(t, 0, f.bridge.unlockCalls)
}

func TestRollbackRestoresLiquidityForNewMatches(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	maker, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)

	f.bridge.failProof = true
	_, err = f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer-a", "BUY", "5", "10"))
	require.Error(t, err)
	assert.True(t, maker.AvailableAmount().Equal(decimal.NewFromInt(5)))

	// 回滚归还的流动性可以被下一笔撮合使用
	f.bridge.failProof = false
	result, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer-b", "BUY", "5", "10"))
	require.NoError(t, err)
	assert.Equal(t, string(domain.MatchStatusSettled), result.MatchStatus)
	assert.Equal(t, domain.OrderStatusFilled, maker.Status)
}

func TestGasGateUsesTakerNotional(t *testing.T) {
	// 成本 3.5e-6 × 396000 = 1.386：低于 taker 名义价值 3×10 的 5%（1.5），
	// 但高于按 maker 价格累计的成交价值 3×8 的 5%（1.2）
	f := newFixture(t, decimal.NewFromFloat(0.0000035), domain.PolicyReject)
	ctx := context.Background()

	_, err := f.manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "8"))
	require.NoError(t, err)

	result, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "3", "10"))
	require.NoError(t, err, "gate threshold is taker amount x taker price")
	assert.Equal(t, string(domain.MatchStatusSettled), result.MatchStatus)
}

// failingOrderRepo 对指定订单的更新注入持久化故障
type failingOrderRepo struct {
	*memory.OrderRepository
	failUpdateFor string
}

func (r *failingOrderRepo) Update(ctx context.Context, order *domain.Order) error {
	if order.OrderID == r.failUpdateFor {
		return fmt.Errorf("connection lost")
	}
	return r.OrderRepository.Update(ctx, order)
}

func TestPersistenceFailureAfterReleaseIsReconciliation(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyReject)
	ctx := context.Background()

	orders := &failingOrderRepo{OrderRepository: f.orders}
	manager := NewCrossChainManager(f.book, f.registry, orders, f.matches, f.pub, f.cfg, f.log)

	maker, err := manager.SubmitMakerOrder(ctx, cmd("0xseller", "SELL", "5", "10"))
	require.NoError(t, err)
	orders.failUpdateFor = maker.OrderID

	_, err = manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "3", "10"))
	var reconErr *domain.ReconciliationError
	require.ErrorAs(t, err, &reconErr, "a settled match that cannot be persisted needs reconciliation")

	// 链上已完成释放：全部成交量已应用，撮合推进到 SETTLED，没有半套状态
	assert.True(t, maker.FilledAmount.Equal(decimal.NewFromInt(3)))
	matches, err := f.matches.ListByOrderID(ctx, maker.OrderID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchStatusSettled, matches[0].Status)

	taker, err := f.orders.GetByOrderID(ctx, matches[0].TakerOrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, taker.Status)
}

func TestPartialFillPolicyOnEmptyBook(t *testing.T) {
	f := newFixture(t, tinyGasPrice, domain.PolicyPartialFill)
	ctx := context.Background()

	_, err := f.manager.ProcessTakerOrder(ctx, cmd("0xbuyer", "BUY", "5", "10"))
	var liqErr *domain.InsufficientLiquidityError
	require.ErrorAs(t, err, &liqErr)
	assert.Equal(t, "0", liqErr.Available)
}
