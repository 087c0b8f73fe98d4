package domain

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchFixture(t *testing.T) (*OrderMatch, *Order, *Order) {
	t.Helper()
	taker, err := NewOrder("T1", "0xtaker", SideBuy, "usdc", "ethereum", "weth", "bsc",
		decimal.NewFromInt(10), decimal.NewFromInt(2), nil)
	require.NoError(t, err)
	require.NoError(t, taker.Activate())

	maker, err := NewOrder("M1", "0xmaker", SideSell, "usdc", "ethereum", "weth", "bsc",
		decimal.NewFromInt(10), decimal.NewFromInt(2), nil)
	require.NoError(t, err)
	require.NoError(t, maker.Activate())

	match, err := NewOrderMatch("MATCH1", taker)
	require.NoError(t, err)
	return match, taker, maker
}

func TestMatchLifecycleHappyPath(t *testing.T) {
	match, _, maker := newMatchFixture(t)
	require.NoError(t, match.AddMakerOrder(maker, decimal.NewFromInt(4)))

	require.NoError(t, match.MarkGasChecked())
	require.NoError(t, match.BeginLocking())
	require.NoError(t, match.BeginProofing())
	require.NoError(t, match.BeginReleasing())
	require.NoError(t, match.Settle())
	assert.True(t, match.Status.IsTerminal())

	// 结算后不可再回滚
	assert.Error(t, match.BeginRollback("too late"))
}

func TestMatchRejectAndRollbackPaths(t *testing.T) {
	match, _, maker := newMatchFixture(t)
	require.NoError(t, match.AddMakerOrder(maker, decimal.NewFromInt(4)))

	// CREATED 不能直接回滚或拒绝
	assert.Error(t, match.BeginRollback("not yet"))
	assert.Error(t, match.Reject("not yet"))

	require.NoError(t, match.MarkGasChecked())
	require.NoError(t, match.BeginLocking())
	require.NoError(t, match.BeginRollback("lock failed"))
	require.NoError(t, match.FailRollback())
	assert.Equal(t, MatchStatusFailed, match.Status)
	assert.Equal(t, "lock failed", match.Reason)
}

func TestAddMakerOrderGuards(t *testing.T) {
	match, _, maker := newMatchFixture(t)

	assert.Error(t, match.AddMakerOrder(maker, decimal.NewFromInt(11)), "allocation above maker remaining")
	assert.Error(t, match.AddMakerOrder(maker, decimal.Zero))

	require.NoError(t, match.AddMakerOrder(maker, decimal.NewFromInt(10)))
	require.NoError(t, match.MarkGasChecked())
	assert.Error(t, match.AddMakerOrder(maker, decimal.NewFromInt(1)), "no fills after gas check")
}

func TestEstimateTotalGasCostDeduplicatesChains(t *testing.T) {
	book := newTestBook(t)
	match, _, maker := newMatchFixture(t)
	require.NoError(t, match.AddMakerOrder(maker, decimal.NewFromInt(4)))

	// taker 与 maker 共享 ethereum/bsc 两条链，各计费一次
	cost, err := match.EstimateTotalGasCost(context.Background(), book)
	require.NoError(t, err)

	chain, err := book.GetChain("ethereum")
	require.NoError(t, err)
	single, err := chain.EstimateGasFee(context.Background(), OpFillOrder)
	require.NoError(t, err)

	assert.True(t, cost.Equal(single.Mul(decimal.NewFromInt(2))),
		"expected exactly one FILL_ORDER fee per distinct chain, got %s", cost)
}

func TestTradeValueUsesMakerPrices(t *testing.T) {
	match, _, maker := newMatchFixture(t)
	require.NoError(t, match.AddMakerOrder(maker, decimal.NewFromInt(4)))
	assert.True(t, match.TradeValue().Equal(decimal.NewFromInt(8)))
}

func TestEncodeDecodeFills(t *testing.T) {
	match, _, maker := newMatchFixture(t)
	require.NoError(t, match.AddMakerOrder(maker, decimal.NewFromInt(4)))
	require.NoError(t, match.EncodeFills())

	restored := &OrderMatch{MatchID: match.MatchID, FillsJSON: match.FillsJSON}
	require.NoError(t, restored.DecodeFills())
	require.Len(t, restored.Fills, 1)
	assert.Equal(t, "M1", restored.Fills[0].MakerOrderID)
	assert.True(t, restored.Fills[0].Amount.Equal(decimal.NewFromInt(4)))
	assert.Nil(t, restored.Fills[0].Order, "order pointers are not persisted")
}

func TestGasFeeFormula(t *testing.T) {
	provider := fixedGasProvider{price: decimal.NewFromInt(2)}
	chain, err := NewBlockchain("ethereum", "Ethereum", 1, provider)
	require.NoError(t, err)

	fee, err := chain.EstimateGasFee(context.Background(), OpPlaceOrder)
	require.NoError(t, err)
	// 2 * 120000 * 1.10
	assert.True(t, fee.Equal(decimal.NewFromInt(264000)), "got %s", fee)

	fee, err = chain.EstimateGasFee(context.Background(), OperationType("UNKNOWN_OP"))
	require.NoError(t, err)
	// 2 * 100000 * 1.10
	assert.True(t, fee.Equal(decimal.NewFromInt(220000)), "got %s", fee)
}

func TestExecutionPriorityMultipliers(t *testing.T) {
	assert.True(t, PriorityFast.Multiplier().Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, PriorityStandard.Multiplier().Equal(decimal.NewFromInt(1)))
	assert.True(t, PriorityEconomic.Multiplier().Equal(decimal.NewFromFloat(0.8)))
}
