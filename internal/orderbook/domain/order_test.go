package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, side OrderSide, amount, price string) *Order {
	t.Helper()
	a, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	order, err := NewOrder("ORD-"+string(side)+"-"+amount+"-"+price, "0xmaker", side,
		"usdc", "ethereum", "weth", "bsc", a, p, nil)
	require.NoError(t, err)
	return order
}

func TestNewOrderValidation(t *testing.T) {
	one := decimal.NewFromInt(1)

	_, err := NewOrder("O1", "0xm", SideBuy, "usdc", "eth", "weth", "bsc", decimal.Zero, one, nil)
	assert.Error(t, err, "zero amount must be rejected")

	_, err = NewOrder("O1", "0xm", SideBuy, "usdc", "eth", "weth", "bsc", one, decimal.NewFromInt(-1), nil)
	assert.Error(t, err, "negative price must be rejected")

	_, err = NewOrder("O1", "0xm", SideBuy, "usdc", "eth", "usdc", "eth", one, one, nil)
	assert.Error(t, err, "identical base and quote legs must be rejected")

	_, err = NewOrder("O1", "0xm", SideBuy, "usdc", "eth", "weth", "eth", one, one, nil)
	assert.Error(t, err, "both legs on one chain have no bridge direction to settle over")

	order, err := NewOrder("O1", "0xm", SideBuy, "usdc", "eth", "usdc", "bsc", one, one, nil)
	require.NoError(t, err, "same asset on different chains is a valid pair")
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.True(t, order.Timestamp > 0)
}

func TestOrderStatusTransitions(t *testing.T) {
	order := newTestOrder(t, SideBuy, "10", "2")

	require.NoError(t, order.Activate())
	assert.Equal(t, OrderStatusActive, order.Status)

	require.NoError(t, order.Cancel())
	assert.Equal(t, OrderStatusCancelled, order.Status)

	// 终态不可再迁移，重复取消同样报错
	assert.Error(t, order.Activate())
	assert.Error(t, order.Fail())
	assert.Error(t, order.Cancel())
}

func TestFailedOrderCannotReactivate(t *testing.T) {
	order := newTestOrder(t, SideSell, "5", "1")
	require.NoError(t, order.Activate())
	require.NoError(t, order.Fail())

	assert.Error(t, order.TransitionTo(OrderStatusActive))
	assert.Equal(t, OrderStatusFailed, order.Status)
}

func TestApplyFillMonotonicAndCapped(t *testing.T) {
	order := newTestOrder(t, SideBuy, "10", "2")
	require.NoError(t, order.Activate())

	require.NoError(t, order.ApplyFill(decimal.NewFromInt(4)))
	assert.Equal(t, OrderStatusPartiallyFilled, order.Status)
	assert.True(t, order.RemainingAmount().Equal(decimal.NewFromInt(6)))

	assert.Error(t, order.ApplyFill(decimal.NewFromInt(7)), "overfill must be rejected")
	assert.True(t, order.FilledAmount.Equal(decimal.NewFromInt(4)), "rejected fill must not change state")

	assert.Error(t, order.ApplyFill(decimal.Zero))

	require.NoError(t, order.ApplyFill(decimal.NewFromInt(6)))
	assert.Equal(t, OrderStatusFilled, order.Status)
	assert.True(t, order.RemainingAmount().IsZero())
}

func TestReservationAccounting(t *testing.T) {
	order := newTestOrder(t, SideSell, "10", "2")
	require.NoError(t, order.Activate())

	require.NoError(t, order.Reserve(decimal.NewFromInt(6)))
	assert.True(t, order.AvailableAmount().Equal(decimal.NewFromInt(4)))
	assert.True(t, order.RemainingAmount().Equal(decimal.NewFromInt(10)), "reservation does not touch fills")

	assert.Error(t, order.Reserve(decimal.NewFromInt(5)), "over-reservation must be rejected")
	assert.Error(t, order.Reserve(decimal.Zero))
	assert.True(t, order.ReservedAmount().Equal(decimal.NewFromInt(6)))

	// 成交消耗预留
	require.NoError(t, order.ApplyFill(decimal.NewFromInt(6)))
	assert.True(t, order.ReservedAmount().IsZero())
	assert.True(t, order.AvailableAmount().Equal(decimal.NewFromInt(4)))

	// 归还把流动性交还给后续撮合
	require.NoError(t, order.Reserve(decimal.NewFromInt(4)))
	assert.True(t, order.AvailableAmount().IsZero())
	order.ReleaseReserved(decimal.NewFromInt(4))
	assert.True(t, order.AvailableAmount().Equal(decimal.NewFromInt(4)))
}

func TestOrderExpiry(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	expired, err := NewOrder("O1", "0xm", SideBuy, "usdc", "eth", "weth", "bsc",
		decimal.NewFromInt(1), decimal.NewFromInt(1), &past)
	require.NoError(t, err)
	require.NoError(t, expired.Activate())
	assert.False(t, expired.IsMatchable(time.Now()))

	live, err := NewOrder("O2", "0xm", SideBuy, "usdc", "eth", "weth", "bsc",
		decimal.NewFromInt(1), decimal.NewFromInt(1), &future)
	require.NoError(t, err)
	require.NoError(t, live.Activate())
	assert.True(t, live.IsMatchable(time.Now()))
}
