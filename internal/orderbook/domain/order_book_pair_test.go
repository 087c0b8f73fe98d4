package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPair = PairKey{
	BaseAssetID:  "usdc",
	BaseChainID:  "ethereum",
	QuoteAssetID: "weth",
	QuoteChainID: "bsc",
}

func activeOrder(t *testing.T, id string, side OrderSide, amount, price string, ts int64) *Order {
	t.Helper()
	a, _ := decimal.NewFromString(amount)
	p, _ := decimal.NewFromString(price)
	order, err := NewOrder(id, "0xmaker-"+id, side,
		testPair.BaseAssetID, testPair.BaseChainID, testPair.QuoteAssetID, testPair.QuoteChainID,
		a, p, nil)
	require.NoError(t, err)
	require.NoError(t, order.Activate())
	order.Timestamp = ts
	return order
}

func TestAddOrderRejectsPairMismatch(t *testing.T) {
	book := NewOrderBookPair(testPair)
	stray, err := NewOrder("STRAY", "0xm", SideBuy, "weth", "polygon", "usdc", "ethereum",
		decimal.NewFromInt(1), decimal.NewFromInt(1), nil)
	require.NoError(t, err)

	assert.Error(t, book.AddOrder(stray))
}

func TestRemoveOrderIdempotent(t *testing.T) {
	book := NewOrderBookPair(testPair)
	order := activeOrder(t, "A", SideBuy, "1", "100", 1)
	require.NoError(t, book.AddOrder(order))

	assert.True(t, book.RemoveOrder("A"))
	assert.False(t, book.RemoveOrder("A"), "second removal reports not found without error")
	assert.False(t, book.RemoveOrder("NEVER-EXISTED"))
}

func TestFindMatchingOrdersPriceTimePriority(t *testing.T) {
	book := NewOrderBookPair(testPair)
	// 卖单：价格升序，同价按时间升序
	require.NoError(t, book.AddOrder(activeOrder(t, "S-CHEAP-LATE", SideSell, "5", "99", 300)))
	require.NoError(t, book.AddOrder(activeOrder(t, "S-CHEAP-EARLY", SideSell, "5", "99", 100)))
	require.NoError(t, book.AddOrder(activeOrder(t, "S-MID", SideSell, "5", "100", 200)))
	require.NoError(t, book.AddOrder(activeOrder(t, "S-EXPENSIVE", SideSell, "5", "105", 50)))

	taker := activeOrder(t, "T", SideBuy, "20", "100", 400)
	makers := book.FindMatchingOrders(taker, time.Now())

	require.Len(t, makers, 3, "sell above taker price must not cross")
	assert.Equal(t, "S-CHEAP-EARLY", makers[0].OrderID, "same price resolved by earlier timestamp")
	assert.Equal(t, "S-CHEAP-LATE", makers[1].OrderID)
	assert.Equal(t, "S-MID", makers[2].OrderID)
}

func TestFindMatchingOrdersSkipsCancelledAndExpired(t *testing.T) {
	book := NewOrderBookPair(testPair)

	cancelled := activeOrder(t, "CANCELLED", SideSell, "5", "90", 1)
	require.NoError(t, book.AddOrder(cancelled))
	require.NoError(t, cancelled.Cancel())

	past := time.Now().Add(-time.Second)
	expired := activeOrder(t, "EXPIRED", SideSell, "5", "90", 2)
	expired.ExpiresAt = &past
	require.NoError(t, book.AddOrder(expired))

	require.NoError(t, book.AddOrder(activeOrder(t, "GOOD", SideSell, "5", "95", 3)))

	taker := activeOrder(t, "T", SideBuy, "10", "100", 10)
	makers := book.FindMatchingOrders(taker, time.Now())

	require.Len(t, makers, 1)
	assert.Equal(t, "GOOD", makers[0].OrderID)
}

func TestAllocateMatchGreedySinglePass(t *testing.T) {
	book := NewOrderBookPair(testPair)
	require.NoError(t, book.AddOrder(activeOrder(t, "S1", SideSell, "4", "99", 1)))
	require.NoError(t, book.AddOrder(activeOrder(t, "S2", SideSell, "4", "100", 2)))
	require.NoError(t, book.AddOrder(activeOrder(t, "S3", SideSell, "4", "101", 3)))

	taker := activeOrder(t, "T", SideBuy, "6", "100", 10)
	match, err := book.AllocateMatch("M1", taker, time.Now())
	require.NoError(t, err)

	require.Len(t, match.Fills, 2)
	assert.Equal(t, "S1", match.Fills[0].MakerOrderID)
	assert.True(t, match.Fills[0].Amount.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "S2", match.Fills[1].MakerOrderID)
	assert.True(t, match.Fills[1].Amount.Equal(decimal.NewFromInt(2)))
	assert.True(t, match.TotalFillAmount().Equal(decimal.NewFromInt(6)))

	// 分配不修改订单状态
	for _, fill := range match.Fills {
		assert.True(t, fill.Order.FilledAmount.IsZero())
		assert.Equal(t, OrderStatusActive, fill.Order.Status)
	}
}

func TestAllocateMatchEmptyBook(t *testing.T) {
	book := NewOrderBookPair(testPair)
	taker := activeOrder(t, "T", SideBuy, "6", "100", 10)

	match, err := book.AllocateMatch("M1", taker, time.Now())
	require.NoError(t, err)
	assert.True(t, match.IsEmpty(), "empty match is a valid result")
	assert.True(t, match.TotalFillAmount().IsZero())
}

func TestAllocateMatchReservesLiquidity(t *testing.T) {
	book := NewOrderBookPair(testPair)
	maker := activeOrder(t, "S1", SideSell, "5", "99", 1)
	require.NoError(t, book.AddOrder(maker))

	takerA := activeOrder(t, "TA", SideBuy, "5", "100", 10)
	matchA, err := book.AllocateMatch("MA", takerA, time.Now())
	require.NoError(t, err)
	require.True(t, matchA.TotalFillAmount().Equal(decimal.NewFromInt(5)))
	assert.True(t, maker.AvailableAmount().IsZero())

	// A 在途期间同一 maker 不可再被分配
	takerB := activeOrder(t, "TB", SideBuy, "5", "100", 11)
	matchB, err := book.AllocateMatch("MB", takerB, time.Now())
	require.NoError(t, err)
	assert.True(t, matchB.IsEmpty())
	assert.False(t, book.HasEnoughLiquidity(takerB, time.Now()))

	// 归还后流动性重新可见
	matchA.ReleaseReservations()
	assert.True(t, maker.AvailableAmount().Equal(decimal.NewFromInt(5)))
	matchC, err := book.AllocateMatch("MC", takerB, time.Now())
	require.NoError(t, err)
	assert.True(t, matchC.TotalFillAmount().Equal(decimal.NewFromInt(5)))
}

func TestHasEnoughLiquidity(t *testing.T) {
	book := NewOrderBookPair(testPair)
	require.NoError(t, book.AddOrder(activeOrder(t, "S1", SideSell, "5", "99", 1)))

	small := activeOrder(t, "T1", SideBuy, "3", "100", 10)
	big := activeOrder(t, "T2", SideBuy, "30", "100", 11)

	assert.True(t, book.HasEnoughLiquidity(small, time.Now()))
	assert.False(t, book.HasEnoughLiquidity(big, time.Now()))
}

func TestSnapshotAggregatesByPrice(t *testing.T) {
	book := NewOrderBookPair(testPair)
	require.NoError(t, book.AddOrder(activeOrder(t, "B1", SideBuy, "3", "98", 1)))
	require.NoError(t, book.AddOrder(activeOrder(t, "B2", SideBuy, "2", "98", 2)))
	require.NoError(t, book.AddOrder(activeOrder(t, "B3", SideBuy, "1", "97", 3)))
	require.NoError(t, book.AddOrder(activeOrder(t, "S1", SideSell, "4", "101", 4)))

	snapshot := book.Snapshot(10)
	require.Len(t, snapshot.Bids, 2)
	assert.True(t, snapshot.Bids[0].Price.Equal(decimal.NewFromInt(98)))
	assert.True(t, snapshot.Bids[0].Amount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 2, snapshot.Bids[0].OrderCount)
	require.Len(t, snapshot.Asks, 1)
}

func TestConcurrentAddAndMatchSerialized(t *testing.T) {
	book := NewOrderBookPair(testPair)
	for i := 0; i < 20; i++ {
		require.NoError(t, book.AddOrder(activeOrder(t, fmt.Sprintf("S%d", i), SideSell, "1", "100", int64(i))))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			taker := activeOrder(t, fmt.Sprintf("T%d", i), SideBuy, "5", "100", int64(1000+i))
			_, err := book.AllocateMatch(fmt.Sprintf("M%d", i), taker, time.Now())
			assert.NoError(t, err)
		}
	}()
	for i := 20; i < 40; i++ {
		require.NoError(t, book.AddOrder(activeOrder(t, fmt.Sprintf("S%d", i), SideSell, "1", "100", int64(i))))
	}
	<-done
}
