package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/pkg/logger"
	"github.com/wyfcoding/multichainorderbook/pkg/utils"
)

// settlementLeg 一笔跨链转移的完整描述，贯穿锁定/证明/释放三个阶段
type settlementLeg struct {
	pair      domain.ChainPair
	bridge    domain.Bridge
	maker     *domain.Order
	lock      domain.LockRequest
	recipient string
	receipt   *domain.LockReceipt
	proof     *domain.LockProof
}

// CrossChainManager 跨链撮合结算编排器
// 撮合产生 OrderMatch 后，按 gas 检查、锁定、证明、释放的顺序推进结算，
// 任一阶段失败都会对已锁定的资产做补偿性解锁，订单状态只在全部成功后修改
type CrossChainManager struct {
	logger    *slog.Logger
	book      *domain.MultiChainOrderBook
	bridges   *domain.BridgeRegistry
	orders    domain.OrderRepository
	matches   domain.MatchRepository
	publisher domain.EventPublisher
	cfg       domain.SettlementConfig
	idgen     *utils.SnowflakeID

	// 结算是否在独立 goroutine 中异步执行
	asyncSettlement bool
	settling        sync.WaitGroup
}

// NewCrossChainManager 创建结算编排器
func NewCrossChainManager(
	book *domain.MultiChainOrderBook,
	bridges *domain.BridgeRegistry,
	orders domain.OrderRepository,
	matches domain.MatchRepository,
	publisher domain.EventPublisher,
	cfg domain.SettlementConfig,
	log *slog.Logger,
) *CrossChainManager {
	cfg.Normalize()
	return &CrossChainManager{
		logger:    log.With("module", "cross_chain_manager"),
		book:      book,
		bridges:   bridges,
		orders:    orders,
		matches:   matches,
		publisher: publisher,
		cfg:       cfg,
		idgen:     utils.NewSnowflakeID(1),
	}
}

// EnableAsyncSettlement 开启异步结算，服务进程使用；测试与直接调用保持同步
func (m *CrossChainManager) EnableAsyncSettlement() {
	m.asyncSettlement = true
}

// Wait 等待所有在途异步结算完成
func (m *CrossChainManager) Wait() {
	m.settling.Wait()
}

// SubmitMakerOrder 提交 maker 挂单：校验、激活、入簿、落库、发事件
// 入簿失败的订单置为 FAILED，不会留在订单簿里
func (m *CrossChainManager) SubmitMakerOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	order, err := m.buildOrder(cmd)
	if err != nil {
		return nil, err
	}
	if err := order.Activate(); err != nil {
		return nil, err
	}

	book, err := m.book.GetOrCreateOrderBook(order.PairKey())
	if err != nil {
		return nil, err
	}
	if err := book.AddOrder(order); err != nil {
		if failErr := order.Fail(); failErr != nil {
			m.logger.Error("failed to mark rejected order as failed",
				"order_id", order.OrderID, "error", failErr)
		}
		if saveErr := m.orders.Save(ctx, order); saveErr != nil {
			m.logger.Error("failed to persist rejected order",
				"order_id", order.OrderID, "error", saveErr)
		}
		return nil, err
	}

	if err := m.orders.Save(ctx, order); err != nil {
		book.RemoveOrder(order.OrderID)
		return nil, fmt.Errorf("failed to persist order %s: %w", order.OrderID, err)
	}

	m.publishOrderCreated(ctx, order)
	m.logger.Info("maker order accepted",
		"order_id", order.OrderID,
		"pair", order.PairKey().String(),
		"side", order.Side,
		"amount", order.Amount.String(),
		"price", order.Price.String(),
	)
	return order, nil
}

// CancelOrder 取消挂单并从订单簿移除
func (m *CrossChainManager) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := m.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(); err != nil {
		return nil, err
	}
	if book, ok := m.book.GetOrderBook(order.PairKey()); ok {
		book.RemoveOrder(order.OrderID)
	}
	if err := m.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	m.logger.Info("order cancelled", "order_id", orderID)
	return order, nil
}

// ProcessTakerOrder 处理 taker 吃单：撮合、流动性策略、跨链结算
func (m *CrossChainManager) ProcessTakerOrder(ctx context.Context, cmd PlaceOrderCommand) (*TakerResult, error) {
	taker, err := m.buildOrder(cmd)
	if err != nil {
		return nil, err
	}
	if err := taker.Activate(); err != nil {
		return nil, err
	}

	defer logger.LogDuration(ctx, "taker order processed", "order_id", taker.OrderID)()

	matchID := fmt.Sprintf("MAT%d", m.idgen.Generate())
	match, err := m.book.MatchTakerOrder(matchID, taker)
	if err != nil {
		return nil, err
	}

	shortfall := match.TotalFillAmount().LessThan(taker.Amount)
	if shortfall {
		switch m.cfg.PartialFillPolicy {
		case domain.PolicyPartialFill, domain.PolicyConvertToMaker:
			// 结算已获得的部分，空撮合留给下面的分支处理
		default:
			// REJECT：整笔失败，预留量归还订单簿，maker 不做任何修改
			match.ReleaseReservations()
			if err := taker.Fail(); err != nil {
				return nil, err
			}
			if err := m.orders.Save(ctx, taker); err != nil {
				return nil, err
			}
			return nil, &domain.InsufficientLiquidityError{
				PairKey:   taker.PairKey(),
				Requested: taker.Amount.String(),
				Available: match.TotalFillAmount().String(),
			}
		}
	}

	if err := m.orders.Save(ctx, taker); err != nil {
		return nil, fmt.Errorf("failed to persist taker order %s: %w", taker.OrderID, err)
	}
	m.publishOrderCreated(ctx, taker)

	if match.IsEmpty() {
		// 没有任何交叉：PARTIAL_FILL 下订单失败，CONVERT_TO_MAKER 下整单转挂单
		if m.cfg.PartialFillPolicy == domain.PolicyConvertToMaker {
			if err := m.restAsMaker(ctx, taker); err != nil {
				return nil, err
			}
			return m.takerResult(taker, nil), nil
		}
		if err := taker.Fail(); err != nil {
			return nil, err
		}
		if err := m.orders.Update(ctx, taker); err != nil {
			return nil, err
		}
		return nil, &domain.InsufficientLiquidityError{
			PairKey:   taker.PairKey(),
			Requested: taker.Amount.String(),
			Available: "0",
		}
	}

	if err := m.matches.Save(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to persist match %s: %w", match.MatchID, err)
	}

	if m.asyncSettlement {
		m.settling.Add(1)
		go func() {
			defer m.settling.Done()
			settleCtx, cancel := context.WithTimeout(context.Background(), m.settlementDeadline(match))
			defer cancel()
			if err := m.ExecuteMatch(settleCtx, match); err != nil {
				m.logger.Error("async settlement failed",
					"match_id", match.MatchID, "error", err)
				return
			}
			if m.cfg.PartialFillPolicy == domain.PolicyConvertToMaker && taker.RemainingAmount().IsPositive() {
				if err := m.restAsMaker(settleCtx, taker); err != nil {
					m.logger.Error("failed to rest taker remainder",
						"order_id", taker.OrderID, "error", err)
				}
			}
		}()
		return m.takerResult(taker, match), nil
	}

	if err := m.ExecuteMatch(ctx, match); err != nil {
		return nil, err
	}
	if m.cfg.PartialFillPolicy == domain.PolicyConvertToMaker && taker.RemainingAmount().IsPositive() {
		if err := m.restAsMaker(ctx, taker); err != nil {
			return nil, err
		}
	}
	return m.takerResult(taker, match), nil
}

// ExecuteMatch 推进一次撮合的完整跨链结算
func (m *CrossChainManager) ExecuteMatch(ctx context.Context, match *domain.OrderMatch) error {
	if match.IsEmpty() {
		return domain.NewValidationError("match", "cannot settle an empty match")
	}

	// 1. gas 闸门：成本上限以 taker 名义价值（数量×限价）为基数，
	// 超限直接拒绝，不触达任何桥，不修改任何订单
	gasCost, err := match.EstimateTotalGasCost(ctx, m.book)
	if err != nil {
		match.ReleaseReservations()
		return err
	}
	if err := match.MarkGasChecked(); err != nil {
		match.ReleaseReservations()
		return err
	}
	takerNotional := match.Taker.Amount.Mul(match.Taker.Price)
	maxGas := takerNotional.Mul(decimal.NewFromFloat(m.cfg.MaxGasPercent))
	if gasCost.GreaterThan(maxGas) {
		match.ReleaseReservations()
		profitErr := &domain.ProfitabilityError{
			MatchID:    match.MatchID,
			GasCost:    gasCost.String(),
			TradeValue: takerNotional.String(),
			MaxPercent: m.cfg.MaxGasPercent,
		}
		if err := match.Reject(profitErr.Error()); err != nil {
			return err
		}
		if err := m.matches.Update(ctx, match); err != nil {
			m.logger.Error("failed to persist rejected match",
				"match_id", match.MatchID, "error", err)
		}
		m.logger.Warn("match rejected by gas gate",
			"match_id", match.MatchID,
			"gas_cost", gasCost.String(),
			"taker_notional", takerNotional.String(),
		)
		return profitErr
	}

	// 2. 预解析全部桥：任何一条腿无桥可走就不开始锁定
	legs, resolveErr := m.resolveLegs(ctx, match)
	if err := match.BeginLocking(); err != nil {
		match.ReleaseReservations()
		return err
	}
	state := domain.NewExecutionState(match.MatchID)
	if resolveErr != nil {
		return m.rollback(ctx, match, state, resolveErr)
	}
	if err := m.matches.Update(ctx, match); err != nil {
		m.logger.Error("failed to persist match status", "match_id", match.MatchID, "error", err)
	}

	// 3. 锁定：每条腿落地后先记入台账，再推进下一条
	for i := range legs {
		if err := m.lockLeg(ctx, state, &legs[i]); err != nil {
			return m.rollback(ctx, match, state, err)
		}
	}

	// 4. 证明：按源链确认数与超时逐腿生成
	if err := match.BeginProofing(); err != nil {
		return m.rollback(ctx, match, state, err)
	}
	for i := range legs {
		if err := m.proveLeg(ctx, &legs[i]); err != nil {
			return m.rollback(ctx, match, state, err)
		}
	}

	// 5. 释放
	if err := match.BeginReleasing(); err != nil {
		return m.rollback(ctx, match, state, err)
	}
	for i := range legs {
		if err := m.releaseLeg(ctx, &legs[i]); err != nil {
			return m.rollback(ctx, match, state, err)
		}
	}

	// 6. 全部成功后才修改订单状态
	if err := m.updateOrderStatuses(ctx, match); err != nil {
		return err
	}

	m.publishTradeCompleted(ctx, match)
	m.logger.Info("match settled",
		"match_id", match.MatchID,
		"fills", len(match.Fills),
		"total_amount", match.TotalFillAmount().String(),
	)
	return nil
}

// updateOrderStatuses 结算成功后应用成交量并推进撮合到 SETTLED
// 幂等：已结算的撮合再次调用不产生任何修改
// 资产此时已在链上释放完毕：先把全部成交量应用到订单，再迁移撮合状态，
// 任何对不上的地方都以 ReconciliationError 暴露，绝不留下无声的半套状态
func (m *CrossChainManager) updateOrderStatuses(ctx context.Context, match *domain.OrderMatch) error {
	if match.Status == domain.MatchStatusSettled {
		return nil
	}

	total := match.TotalFillAmount()
	if err := match.Taker.ApplyFill(total); err != nil {
		return &domain.ReconciliationError{
			MatchID: match.MatchID,
			Reason:  fmt.Sprintf("assets released but taker %s fill not applied: %v", match.TakerOrderID, err),
			At:      time.Now(),
		}
	}
	for _, fill := range match.Fills {
		if err := fill.Order.ApplyFill(fill.Amount); err != nil {
			return &domain.ReconciliationError{
				MatchID: match.MatchID,
				Reason:  fmt.Sprintf("assets released but maker %s fill not applied: %v", fill.MakerOrderID, err),
				At:      time.Now(),
			}
		}
	}
	if err := match.Settle(); err != nil {
		return err
	}

	var persistFailures []string
	if err := m.orders.Update(ctx, match.Taker); err != nil {
		persistFailures = append(persistFailures, fmt.Sprintf("taker %s: %v", match.TakerOrderID, err))
	} else {
		m.publishOrderFilled(ctx, match.Taker, match.MatchID, total)
	}
	for _, fill := range match.Fills {
		maker := fill.Order
		if maker.Status == domain.OrderStatusFilled {
			if book, ok := m.book.GetOrderBook(maker.PairKey()); ok {
				book.RemoveOrder(maker.OrderID)
			}
		}
		if err := m.orders.Update(ctx, maker); err != nil {
			persistFailures = append(persistFailures, fmt.Sprintf("maker %s: %v", maker.OrderID, err))
			continue
		}
		m.publishOrderFilled(ctx, maker, match.MatchID, fill.Amount)
	}
	if err := m.matches.Update(ctx, match); err != nil {
		persistFailures = append(persistFailures, fmt.Sprintf("match %s: %v", match.MatchID, err))
	}

	if len(persistFailures) > 0 {
		return &domain.ReconciliationError{
			MatchID: match.MatchID,
			Reason:  "persistence failed after settlement: " + strings.Join(persistFailures, "; "),
			At:      time.Now(),
		}
	}
	return nil
}

// rollback 补偿性解锁台账中的全部锁定，解锁并发执行
// 回滚失败不自动重试，以 ReconciliationError 暴露给人工对账
func (m *CrossChainManager) rollback(ctx context.Context, match *domain.OrderMatch, state *domain.ExecutionState, cause error) error {
	match.ReleaseReservations()
	if err := match.BeginRollback(cause.Error()); err != nil {
		m.logger.Error("rollback transition failed",
			"match_id", match.MatchID, "status", match.Status, "error", err)
		return cause
	}

	legs := state.Legs()
	m.logger.Warn("rolling back settlement",
		"match_id", match.MatchID,
		"locked_legs", len(legs),
		"cause", cause.Error(),
	)

	var (
		mu       sync.Mutex
		failures []domain.UnlockFailure
		wg       sync.WaitGroup
	)
	for _, leg := range legs {
		wg.Add(1)
		go func(leg domain.LockedLeg) {
			defer wg.Done()
			if err := leg.Bridge.UnlockAssets(ctx, leg.ChainID, leg.TxHash); err != nil {
				mu.Lock()
				failures = append(failures, domain.UnlockFailure{
					ChainID: leg.ChainID,
					TxHash:  leg.TxHash,
					Err:     err,
				})
				mu.Unlock()
			}
		}(leg)
	}
	wg.Wait()

	if err := match.FailRollback(); err != nil {
		m.logger.Error("failed to finalize rollback", "match_id", match.MatchID, "error", err)
	}
	if err := m.matches.Update(ctx, match); err != nil {
		m.logger.Error("failed to persist failed match", "match_id", match.MatchID, "error", err)
	}
	m.publishMatchFailed(ctx, match)

	if len(failures) > 0 {
		return &domain.ReconciliationError{
			MatchID:  match.MatchID,
			Failures: failures,
			At:       time.Now(),
		}
	}
	return cause
}

// resolveLegs 把每笔成交展开为基础/计价两条跨链腿，并预先解析桥
func (m *CrossChainManager) resolveLegs(_ context.Context, match *domain.OrderMatch) ([]settlementLeg, error) {
	taker := match.Taker
	basePair := domain.ChainPair{SourceChainID: taker.BaseChainID, DestChainID: taker.QuoteChainID}
	quotePair := basePair.Reverse()

	legs := make([]settlementLeg, 0, len(match.Fills)*2)
	for _, fill := range match.Fills {
		maker := fill.Order

		// 基础资产从卖方转给买方，计价资产反向
		baseSender, baseRecipient := maker.Maker, taker.Maker
		if maker.Side == domain.SideBuy {
			baseSender, baseRecipient = taker.Maker, maker.Maker
		}
		quoteAmount := fill.Amount.Mul(fill.Price)

		baseBridge, err := m.bridges.Resolve(basePair)
		if err != nil {
			return nil, err
		}
		quoteBridge, err := m.bridges.Resolve(quotePair)
		if err != nil {
			return nil, err
		}

		legs = append(legs,
			settlementLeg{
				pair:   basePair,
				bridge: baseBridge,
				maker:  maker,
				lock: domain.LockRequest{
					ChainID: taker.BaseChainID,
					AssetID: taker.BaseAssetID,
					Amount:  fill.Amount,
					Owner:   baseSender,
				},
				recipient: baseRecipient,
			},
			settlementLeg{
				pair:   quotePair,
				bridge: quoteBridge,
				maker:  maker,
				lock: domain.LockRequest{
					ChainID: taker.QuoteChainID,
					AssetID: taker.QuoteAssetID,
					Amount:  quoteAmount,
					Owner:   baseRecipient,
				},
				recipient: baseSender,
			},
		)
	}
	return legs, nil
}

// lockLeg 锁定单条腿，带有限次退避重试
// maker 在锁定时二次校验：撮合后被取消或过期的挂单视为锁定失败
func (m *CrossChainManager) lockLeg(ctx context.Context, state *domain.ExecutionState, leg *settlementLeg) error {
	if leg.maker != nil && !leg.maker.IsMatchable(time.Now()) {
		return &domain.BridgeError{
			Op:      "lock",
			ChainID: leg.lock.ChainID,
			Err: fmt.Errorf("maker order %s no longer matchable (status %s)",
				leg.maker.OrderID, leg.maker.Status),
		}
	}
	var receipt *domain.LockReceipt
	err := utils.RetryWithBackoff(m.cfg.MaxBridgeRetries, m.cfg.RetryBackoff, m.cfg.TimeoutFor(leg.lock.ChainID), func() error {
		var lockErr error
		receipt, lockErr = leg.bridge.LockAssets(ctx, leg.lock)
		return lockErr
	})
	if err != nil {
		return err
	}
	leg.receipt = receipt
	state.RecordLock(domain.LockedLeg{
		ChainID: leg.lock.ChainID,
		AssetID: leg.lock.AssetID,
		Amount:  leg.lock.Amount,
		Owner:   leg.lock.Owner,
		TxHash:  receipt.TxHash,
		Bridge:  leg.bridge,
	})
	return nil
}

// proveLeg 等待确认并生成锁定证明，超时由配置的链级时限约束
func (m *CrossChainManager) proveLeg(ctx context.Context, leg *settlementLeg) error {
	proofCtx, cancel := context.WithTimeout(ctx, m.cfg.TimeoutFor(leg.lock.ChainID))
	defer cancel()

	var proof *domain.LockProof
	err := utils.RetryWithBackoff(m.cfg.MaxBridgeRetries, m.cfg.RetryBackoff, m.cfg.TimeoutFor(leg.lock.ChainID), func() error {
		var proofErr error
		proof, proofErr = leg.bridge.GenerateProof(proofCtx, leg.lock.ChainID, leg.receipt.TxHash)
		return proofErr
	})
	if err != nil {
		return err
	}
	leg.proof = proof
	return nil
}

// releaseLeg 凭证明在目标链释放资产
func (m *CrossChainManager) releaseLeg(ctx context.Context, leg *settlementLeg) error {
	_, err := leg.bridge.ReleaseAssets(ctx, domain.ReleaseRequest{
		ChainID:   leg.pair.DestChainID,
		AssetID:   leg.lock.AssetID,
		Amount:    leg.lock.Amount,
		Recipient: leg.recipient,
		Proof:     leg.proof,
	})
	return err
}

// restAsMaker 把 taker 的剩余量转为挂单
func (m *CrossChainManager) restAsMaker(ctx context.Context, taker *domain.Order) error {
	book, err := m.book.GetOrCreateOrderBook(taker.PairKey())
	if err != nil {
		return err
	}
	if err := book.AddOrder(taker); err != nil {
		return err
	}
	if err := m.orders.Update(ctx, taker); err != nil {
		book.RemoveOrder(taker.OrderID)
		return err
	}
	m.logger.Info("taker remainder converted to maker",
		"order_id", taker.OrderID,
		"remaining", taker.RemainingAmount().String(),
	)
	return nil
}

func (m *CrossChainManager) buildOrder(cmd PlaceOrderCommand) (*domain.Order, error) {
	amount, err := decimal.NewFromString(cmd.Amount)
	if err != nil {
		return nil, domain.NewValidationError("amount", "not a valid decimal")
	}
	price, err := decimal.NewFromString(cmd.Price)
	if err != nil {
		return nil, domain.NewValidationError("price", "not a valid decimal")
	}
	if _, err := m.book.GetAsset(cmd.BaseAssetID); err != nil {
		return nil, err
	}
	if _, err := m.book.GetAsset(cmd.QuoteAssetID); err != nil {
		return nil, err
	}
	if _, err := m.book.GetChain(cmd.BaseChainID); err != nil {
		return nil, err
	}
	if _, err := m.book.GetChain(cmd.QuoteChainID); err != nil {
		return nil, err
	}

	orderID := fmt.Sprintf("ORD%d", m.idgen.Generate())
	return domain.NewOrder(orderID, cmd.Maker, domain.OrderSide(cmd.Side),
		cmd.BaseAssetID, cmd.BaseChainID, cmd.QuoteAssetID, cmd.QuoteChainID,
		amount, price, cmd.ExpiresAt)
}

// settlementDeadline 异步结算的总时限：所有涉及链的桥超时之和再留余量
func (m *CrossChainManager) settlementDeadline(match *domain.OrderMatch) time.Duration {
	total := time.Duration(0)
	for _, chainID := range match.InvolvedChains() {
		total += m.cfg.TimeoutFor(chainID)
	}
	return total + time.Minute
}

func (m *CrossChainManager) takerResult(taker *domain.Order, match *domain.OrderMatch) *TakerResult {
	result := &TakerResult{
		OrderID:     taker.OrderID,
		Status:      string(taker.Status),
		TotalFilled: taker.FilledAmount.String(),
	}
	if match != nil {
		result.MatchID = match.MatchID
		result.MatchStatus = string(match.Status)
		result.FillCount = len(match.Fills)
	}
	return result
}

func (m *CrossChainManager) publishOrderCreated(ctx context.Context, order *domain.Order) {
	event := domain.OrderCreatedEvent{
		OrderID:      order.OrderID,
		Maker:        order.Maker,
		Side:         string(order.Side),
		BaseAssetID:  order.BaseAssetID,
		BaseChainID:  order.BaseChainID,
		QuoteAssetID: order.QuoteAssetID,
		QuoteChainID: order.QuoteChainID,
		Amount:       order.Amount.String(),
		Price:        order.Price.String(),
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := m.publisher.Publish(ctx, domain.TopicOrderCreated, order.OrderID, event); err != nil {
		m.logger.Warn("order.created event dropped", "order_id", order.OrderID, "error", err)
	}
}

func (m *CrossChainManager) publishOrderFilled(ctx context.Context, order *domain.Order, matchID string, amount decimal.Decimal) {
	event := domain.OrderFilledEvent{
		OrderID:      order.OrderID,
		MatchID:      matchID,
		FilledAmount: amount.String(),
		TotalFilled:  order.FilledAmount.String(),
		Status:       string(order.Status),
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := m.publisher.Publish(ctx, domain.TopicOrderFilled, order.OrderID, event); err != nil {
		m.logger.Warn("order.filled event dropped", "order_id", order.OrderID, "error", err)
	}
}

func (m *CrossChainManager) publishTradeCompleted(ctx context.Context, match *domain.OrderMatch) {
	event := domain.TradeCompletedEvent{
		MatchID:      match.MatchID,
		TakerOrderID: match.TakerOrderID,
		FillCount:    len(match.Fills),
		TotalAmount:  match.TotalFillAmount().String(),
		TradeValue:   match.TradeValue().String(),
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := m.publisher.Publish(ctx, domain.TopicTradeCompleted, match.MatchID, event); err != nil {
		m.logger.Warn("trade.completed event dropped", "match_id", match.MatchID, "error", err)
	}
}

func (m *CrossChainManager) publishMatchFailed(ctx context.Context, match *domain.OrderMatch) {
	event := domain.MatchFailedEvent{
		MatchID:      match.MatchID,
		TakerOrderID: match.TakerOrderID,
		Status:       string(match.Status),
		Reason:       match.Reason,
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := m.publisher.Publish(ctx, domain.TopicMatchFailed, match.MatchID, event); err != nil {
		m.logger.Warn("match.failed event dropped", "match_id", match.MatchID, "error", err)
	}
}
