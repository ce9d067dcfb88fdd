package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotex/biz/model"
)

func TestBuildDepthAggregatesAndSorts(t *testing.T) {
	orders := []model.Order{
		{Symbol: "BTCUSDT", Side: "buy", Price: "100", Amount: "1", Status: model.OrderStatusOpen},
		{Symbol: "BTCUSDT", Side: "buy", Price: "100", Amount: "2", Status: model.OrderStatusOpen},
		{Symbol: "BTCUSDT", Side: "buy", Price: "99.5", Amount: "3", Status: model.OrderStatusOpen},
		{Symbol: "BTCUSDT", Side: "sell", Price: "101", Amount: "4", Status: model.OrderStatusOpen},
		{Symbol: "BTCUSDT", Side: "sell", Price: "100.5", Amount: "5", Status: model.OrderStatusOpen},
		// 非 open 与非法方向不进盘口
		{Symbol: "BTCUSDT", Side: "buy", Price: "98", Amount: "9", Status: model.OrderStatusFilled},
		{Symbol: "BTCUSDT", Side: "hold", Price: "98", Amount: "9", Status: model.OrderStatusOpen},
	}

	bids, asks := BuildDepth(orders)

	// 买侧价格降序，同价聚合
	require.Len(t, bids, 2)
	assertDecEqual(t, "100", bids[0].Price)
	assertDecEqual(t, "3", bids[0].Amount)
	assert.Equal(t, 2, bids[0].Count)
	assertDecEqual(t, "99.5", bids[1].Price)

	// 卖侧价格升序
	require.Len(t, asks, 2)
	assertDecEqual(t, "100.5", asks[0].Price)
	assertDecEqual(t, "101", asks[1].Price)
	assertDecEqual(t, "4", asks[1].Amount)
}

func TestBuildDepthEmpty(t *testing.T) {
	bids, asks := BuildDepth(nil)
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestDepthSnapshotLimits(t *testing.T) {
	orig := listOpenOrdersFn
	defer func() { listOpenOrdersFn = orig }()

	listOpenOrdersFn = func(symbol string) ([]model.Order, error) {
		return []model.Order{
			{Symbol: symbol, Side: "buy", Price: "100", Amount: "1", Status: model.OrderStatusOpen},
			{Symbol: symbol, Side: "buy", Price: "99", Amount: "1", Status: model.OrderStatusOpen},
			{Symbol: symbol, Side: "buy", Price: "98", Amount: "1", Status: model.OrderStatusOpen},
			{Symbol: symbol, Side: "sell", Price: "101", Amount: "1", Status: model.OrderStatusOpen},
			{Symbol: symbol, Side: "sell", Price: "102", Amount: "1", Status: model.OrderStatusOpen},
		}, nil
	}

	bids, asks, err := DepthSnapshot("BTCUSDT", 2, 1)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assertDecEqual(t, "100", bids[0].Price)
	require.Len(t, asks, 1)
	assertDecEqual(t, "101", asks[0].Price)
}
