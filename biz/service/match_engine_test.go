package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotex/biz/dal/pg"
	"spotex/biz/dec"
	"spotex/biz/model"
	"spotex/util"
)

func newTestEngine() *MatchEngine {
	return NewMatchEngine(pg.GormDB)
}

// insertOpenOrder 绕过下单流程直接落一笔挂单，构造预约与持仓脱节的现场
func insertOpenOrder(t *testing.T, userID, symbol, side, price, amount string) *model.Order {
	t.Helper()
	id, err := util.GenerateOrderID()
	if err != nil {
		t.Fatalf("生成订单ID失败: %v", err)
	}
	now := time.Now().UnixMilli()
	order := &model.Order{
		OrderID:   id,
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Status:    model.OrderStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := pg.CreateOrder(pg.GormDB, order); err != nil {
		t.Fatalf("插入挂单失败: %v", err)
	}
	return order
}

func TestMatchOrderSettlesAtRestingPrice(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	seller := newTestUser(t, "0")
	sym := uniqueSymbol()
	newTestAsset(t, seller.UserID, sym, "1", "0")

	sellOrder, err := PlaceOrder(ctx, seller.UserID, sym, "sell", "90", "1")
	require.NoError(t, err)
	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	require.NotNil(t, result)

	// 按先挂的卖单价90成交，买方限价100的差额退回
	assert.Equal(t, buyOrder.OrderID, result.BuyOrderID)
	assert.Equal(t, sellOrder.OrderID, result.SellOrderID)
	assertDecEqual(t, "90", result.Price)
	assertDecEqual(t, "1", result.Amount)

	// 买方: 1000 - 100(冻结) + 10(退差) - 1.35(成交额90的1.5%手续费)
	u, err := pg.GetUser(buyer.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "908.65", u.Balance)

	// 卖方收成交额全款
	u, err = pg.GetUser(seller.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "90", u.Balance)

	// 买方得币，卖方冻结清零
	buyerAssets, err := pg.ListUserAssets(buyer.UserID)
	require.NoError(t, err)
	require.Len(t, buyerAssets, 1)
	assertDecEqual(t, "1", buyerAssets[0].Amount)
	assertDecEqual(t, "0", buyerAssets[0].LockedAmount)

	sellerAssets, err := pg.ListUserAssets(seller.UserID)
	require.NoError(t, err)
	require.Len(t, sellerAssets, 1)
	assertDecEqual(t, "0", sellerAssets[0].Amount)
	assertDecEqual(t, "0", sellerAssets[0].LockedAmount)

	// 双方订单进终态
	for _, id := range []string{buyOrder.OrderID, sellOrder.OrderID} {
		o, err := pg.GetOrder(id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusFilled, o.Status)
	}

	// 成交流水落库
	trades, err := pg.ListTrades(sym, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assertDecEqual(t, "90", trades[0].Price)
	assertDecEqual(t, "90", trades[0].UsdVolume)
	assertDecEqual(t, "1.35", trades[0].FeeUsd)
	assert.Equal(t, buyer.UserID, trades[0].BuyerID)
	assert.Equal(t, seller.UserID, trades[0].SellerID)
}

func TestMatchOrderIncomingSellTakesRestingBidPrice(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	seller := newTestUser(t, "0")
	sym := uniqueSymbol()
	newTestAsset(t, seller.UserID, sym, "1", "0")

	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)
	sellOrder, err := PlaceOrder(ctx, seller.UserID, sym, "sell", "90", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, sellOrder.OrderID)
	require.NoError(t, err)
	require.NotNil(t, result)

	// 来单是卖方，按先挂买单的价100成交
	assert.Equal(t, buyOrder.OrderID, result.BuyOrderID)
	assertDecEqual(t, "100", result.Price)

	// 买方冻结100全额用掉，手续费 100*1.5% = 1.5
	u, err := pg.GetUser(buyer.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "898.5", u.Balance)

	u, err = pg.GetUser(seller.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "100", u.Balance)
}

func TestMatchOrderNoCounter(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	sym := uniqueSymbol()

	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	assert.Nil(t, result)

	o, err := pg.GetOrder(buyOrder.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusOpen, o.Status)
}

func TestMatchOrderQuantityMismatchIsNoop(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	seller := newTestUser(t, "0")
	sym := uniqueSymbol()
	newTestAsset(t, seller.UserID, sym, "2", "0")

	sellOrder, err := PlaceOrder(ctx, seller.UserID, sym, "sell", "90", "2")
	require.NoError(t, err)
	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	// 等量撮合：2 != 1，价格交叉也不成交
	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	assert.Nil(t, result)

	for _, id := range []string{buyOrder.OrderID, sellOrder.OrderID} {
		o, err := pg.GetOrder(id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusOpen, o.Status)
	}
}

func TestMatchOrderPriceTimePriority(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	sellerA := newTestUser(t, "0")
	sellerB := newTestUser(t, "0")
	sellerC := newTestUser(t, "0")
	sym := uniqueSymbol()
	newTestAsset(t, sellerA.UserID, sym, "1", "0")
	newTestAsset(t, sellerB.UserID, sym, "1", "0")
	newTestAsset(t, sellerC.UserID, sym, "1", "0")

	// 95先挂但价差，90有两笔，先挂者优先
	_, err := PlaceOrder(ctx, sellerA.UserID, sym, "sell", "95", "1")
	require.NoError(t, err)
	first90, err := PlaceOrder(ctx, sellerB.UserID, sym, "sell", "90", "1")
	require.NoError(t, err)
	_, err = PlaceOrder(ctx, sellerC.UserID, sym, "sell", "90", "1")
	require.NoError(t, err)

	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, first90.OrderID, result.SellOrderID)
	assertDecEqual(t, "90", result.Price)
}

func TestMatchOrderIdempotentOnFilled(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	seller := newTestUser(t, "0")
	sym := uniqueSymbol()
	newTestAsset(t, seller.UserID, sym, "1", "0")

	_, err := PlaceOrder(ctx, seller.UserID, sym, "sell", "90", "1")
	require.NoError(t, err)
	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	engine := newTestEngine()
	result, err := engine.MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	require.NotNil(t, result)

	// 重复投递：订单已 filled，静默无操作
	again, err := engine.MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	assert.Nil(t, again)

	trades, err := pg.ListTrades(sym, 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	u, err := pg.GetUser(buyer.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "908.65", u.Balance)
}

func TestMatchOrderMissingOrderIsNoop(t *testing.T) {
	requireDB(t)
	result, err := newTestEngine().MatchOrder(context.Background(), "no-such-order")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatchOrderBuyerCannotAffordFee(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	// 余额刚好只够冻结本金，退款后付不起手续费
	buyer := newTestUser(t, "100")
	seller := newTestUser(t, "0")
	sym := uniqueSymbol()
	newTestAsset(t, seller.UserID, sym, "1", "0")

	sellOrder, err := PlaceOrder(ctx, seller.UserID, sym, "sell", "100", "1")
	require.NoError(t, err)
	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	assert.Nil(t, result)

	// 双方原样留在 open，账务未动
	for _, id := range []string{buyOrder.OrderID, sellOrder.OrderID} {
		o, err := pg.GetOrder(id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusOpen, o.Status)
	}
	u, err := pg.GetUser(seller.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "0", u.Balance)
}

func TestMatchOrderStaleLockedInventoryIsNoop(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	seller := newTestUser(t, "0")
	sym := uniqueSymbol()
	newTestAsset(t, seller.UserID, sym, "5", "0")

	// 挂单在册但持仓没冻结，撮合必须静默放弃
	sellOrder := insertOpenOrder(t, seller.UserID, sym, model.SideSell, "90", "1")
	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	assert.Nil(t, result)

	for _, id := range []string{buyOrder.OrderID, sellOrder.OrderID} {
		o, err := pg.GetOrder(id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusOpen, o.Status)
	}

	// 账务原封不动：买方保持冻结后的余额，卖方分文未得，持仓不变
	u, err := pg.GetUser(buyer.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "900", u.Balance)
	u, err = pg.GetUser(seller.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "0", u.Balance)

	assets, err := pg.ListUserAssets(seller.UserID)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assertDecEqual(t, "5", assets[0].Amount)
	assertDecEqual(t, "0", assets[0].LockedAmount)
}

func TestMatchOrderMissingSellerAssetIsNoop(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "1000")
	seller := newTestUser(t, "0")
	sym := uniqueSymbol()

	// 卖方连持仓行都没有，撮合留单等人工处理
	sellOrder := insertOpenOrder(t, seller.UserID, sym, model.SideSell, "90", "1")
	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "100", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	assert.Nil(t, result)

	for _, id := range []string{buyOrder.OrderID, sellOrder.OrderID} {
		o, err := pg.GetOrder(id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusOpen, o.Status)
	}

	u, err := pg.GetUser(buyer.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "900", u.Balance)
	u, err = pg.GetUser(seller.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "0", u.Balance)
}

func TestMatchOrderSelfCross(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	trader := newTestUser(t, "1000")
	sym := uniqueSymbol()
	newTestAsset(t, trader.UserID, sym, "1", "0")

	sellOrder, err := PlaceOrder(ctx, trader.UserID, sym, "sell", "90", "1")
	require.NoError(t, err)
	buyOrder, err := PlaceOrder(ctx, trader.UserID, sym, "buy", "90", "1")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assertDecEqual(t, "90", result.Price)

	// 买卖两侧落在同一持仓行：买入的币和解冻的扣减都要留下
	assets, err := pg.ListUserAssets(trader.UserID)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assertDecEqual(t, "1", assets[0].Amount)
	assertDecEqual(t, "0", assets[0].LockedAmount)

	// 成交额自付自收抵消，净变化只有手续费: 1000 - 90*1.5%
	u, err := pg.GetUser(trader.UserID)
	require.NoError(t, err)
	assertDecEqual(t, "998.65", u.Balance)

	for _, id := range []string{buyOrder.OrderID, sellOrder.OrderID} {
		o, err := pg.GetOrder(id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusFilled, o.Status)
	}

	trades, err := pg.ListTrades(sym, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assertDecEqual(t, "1.35", trades[0].FeeUsd)
}

func TestMatchOrderConservesUsd(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	buyer := newTestUser(t, "500")
	seller := newTestUser(t, "200")
	sym := uniqueSymbol()
	newTestAsset(t, seller.UserID, sym, "3", "0")

	_, err := PlaceOrder(ctx, seller.UserID, sym, "sell", "60", "3")
	require.NoError(t, err)
	buyOrder, err := PlaceOrder(ctx, buyer.UserID, sym, "buy", "70", "3")
	require.NoError(t, err)

	result, err := newTestEngine().MatchOrder(ctx, buyOrder.OrderID)
	require.NoError(t, err)
	require.NotNil(t, result)

	// 买方+卖方+手续费 = 成交前双方余额之和
	b, err := pg.GetUser(buyer.UserID)
	require.NoError(t, err)
	s, err := pg.GetUser(seller.UserID)
	require.NoError(t, err)
	trades, err := pg.ListTrades(sym, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	sum := "0"
	for _, v := range []string{b.Balance, s.Balance, trades[0].FeeUsd} {
		var addErr error
		sum, addErr = dec.Add(sum, v)
		require.NoError(t, addErr)
	}
	assertDecEqual(t, "700", sum)
}
