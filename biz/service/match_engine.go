package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/gorm"

	"spotex/biz/dal/pg"
	"spotex/biz/dec"
	"spotex/biz/engine"
	"spotex/biz/model"
	"spotex/util"
)

// MatchEngine 撮合引擎：对一笔新 open 订单，在单个数据库事务内
// 锁单、选对手、校验、结算。所有"当前不可成交"的情况都静默返回 nil，
// 订单留在 open 等下一次机会
type MatchEngine struct {
	db          *gorm.DB
	policy      MatchPolicy
	fee         FeePolicy
	broadcaster engine.Broadcaster
	unicaster   engine.Unicaster
}

type MatchEngineOption func(*MatchEngine)

func WithMatchPolicy(p MatchPolicy) MatchEngineOption {
	return func(m *MatchEngine) { m.policy = p }
}

func WithFeePolicy(f FeePolicy) MatchEngineOption {
	return func(m *MatchEngine) { m.fee = f }
}

func WithBroadcaster(b engine.Broadcaster) MatchEngineOption {
	return func(m *MatchEngine) { m.broadcaster = b }
}

func WithUnicaster(u engine.Unicaster) MatchEngineOption {
	return func(m *MatchEngine) { m.unicaster = u }
}

func NewMatchEngine(db *gorm.DB, opts ...MatchEngineOption) *MatchEngine {
	m := &MatchEngine{
		db:     db,
		policy: ExactQuantityPolicy{},
		fee:    BuyerPaysFee,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchOrder 对指定订单执行一次撮合尝试。
// 锁序固定：来单 → 对手单 → 买方用户 → 卖方用户 → 卖方持仓 → 买方持仓。
// 买卖角色互换的两笔并发撮合可能按相反顺序锁同一对用户，
// 死锁由数据库检测，消费端负责重试
func (m *MatchEngine) MatchOrder(ctx context.Context, orderID string) (*model.MatchResult, error) {
	var result *model.MatchResult

	err := m.db.Transaction(func(tx *gorm.DB) error {
		incoming, err := pg.LockOrder(tx, orderID)
		if err == gorm.ErrRecordNotFound {
			// 订单不存在，任务作废
			return nil
		}
		if err != nil {
			return err
		}
		if incoming.Status != model.OrderStatusOpen {
			// 已被成交或撤销，重复投递在这里自然幂等
			return nil
		}

		counter, err := m.policy.SelectCounter(tx, incoming)
		if err != nil {
			return err
		}
		if counter == nil {
			return nil
		}

		buyOrder, sellOrder := incoming, counter
		if incoming.Side == model.SideSell {
			buyOrder, sellOrder = counter, incoming
		}

		// 价格-时间优先：按先挂的对手单价格成交，价差优惠给来单方
		tradePrice := counter.Price
		amount := incoming.Amount

		usdVolume, err := dec.Mul(amount, tradePrice)
		if err != nil {
			return err
		}
		buyerFee, sellerFee, err := m.fee(buyOrder, sellOrder, usdVolume)
		if err != nil {
			return err
		}

		buyer, err := pg.LockUser(tx, buyOrder.UserID)
		if err != nil {
			return err
		}
		// 自成交买卖同户，共用同一份余额副本，两份各算各的会互相覆盖
		seller := buyer
		if sellOrder.UserID != buyOrder.UserID {
			if seller, err = pg.LockUser(tx, sellOrder.UserID); err != nil {
				return err
			}
		}
		sellerAsset, err := pg.LockAsset(tx, seller.UserID, incoming.Symbol)
		if err == gorm.ErrRecordNotFound {
			// 卖方持仓行丢失，预约已不成立，留单等人工处理
			hlog.Warnf("撮合放弃：卖方持仓行缺失, sell_order_id=%s, seller_id=%s", sellOrder.OrderID, seller.UserID)
			return nil
		}
		if err != nil {
			return err
		}

		// 买单下单时按自己的限价冻结，成交价更优时差额退回
		reservedCost, err := dec.Mul(amount, buyOrder.Price)
		if err != nil {
			return err
		}
		refund, err := dec.Sub(reservedCost, usdVolume)
		if err != nil {
			return err
		}
		buyerBalanceAfterRefund, err := dec.Add(buyer.Balance, refund)
		if err != nil {
			return err
		}

		// 退款后仍付不起手续费 → 本次不成交，不找次优对手
		if c, err := dec.Cmp(buyerBalanceAfterRefund, buyerFee); err != nil {
			return err
		} else if c < 0 {
			return nil
		}
		// 卖方冻结量对不上 → 本次不成交
		if c, err := dec.Cmp(sellerAsset.LockedAmount, amount); err != nil {
			return err
		} else if c < 0 {
			return nil
		}

		buyerAsset, err := pg.LockOrCreateAsset(tx, buyer.UserID, incoming.Symbol)
		if err != nil {
			return err
		}

		// 结算：六项变更与成交流水同事务落库。
		// 持仓按列回写，自成交时买卖两侧是同一行
		buyerAsset.Amount, err = dec.Add(buyerAsset.Amount, amount)
		if err != nil {
			return err
		}
		if err := pg.SaveAssetAvailable(tx, buyerAsset); err != nil {
			return err
		}

		sellerAsset.LockedAmount, err = dec.Sub(sellerAsset.LockedAmount, amount)
		if err != nil {
			return err
		}
		if err := pg.SaveAssetLocked(tx, sellerAsset); err != nil {
			return err
		}

		buyer.Balance, err = dec.Sub(buyerBalanceAfterRefund, buyerFee)
		if err != nil {
			return err
		}
		if err := pg.SaveUserBalance(tx, buyer); err != nil {
			return err
		}

		sellerProceeds, err := dec.Sub(usdVolume, sellerFee)
		if err != nil {
			return err
		}
		seller.Balance, err = dec.Add(seller.Balance, sellerProceeds)
		if err != nil {
			return err
		}
		if err := pg.SaveUserBalance(tx, seller); err != nil {
			return err
		}

		if err := pg.UpdateOrderStatus(tx, incoming.OrderID, model.OrderStatusFilled); err != nil {
			return err
		}
		if err := pg.UpdateOrderStatus(tx, counter.OrderID, model.OrderStatusFilled); err != nil {
			return err
		}

		tradeID, err := util.GenerateTradeID()
		if err != nil {
			return err
		}
		now := time.Now().UnixMilli()
		trade := &model.Trade{
			TradeID:     tradeID,
			BuyOrderID:  buyOrder.OrderID,
			SellOrderID: sellOrder.OrderID,
			Symbol:      incoming.Symbol,
			Price:       tradePrice,
			Amount:      amount,
			UsdVolume:   usdVolume,
			FeeUsd:      buyerFee,
			BuyerID:     buyer.UserID,
			SellerID:    seller.UserID,
			Timestamp:   now,
		}
		if err := pg.InsertTrade(tx, trade); err != nil {
			return err
		}

		result = &model.MatchResult{
			Symbol:      incoming.Symbol,
			BuyOrderID:  buyOrder.OrderID,
			SellOrderID: sellOrder.OrderID,
			BuyerID:     buyer.UserID,
			SellerID:    seller.UserID,
			TradeID:     tradeID,
			Price:       tradePrice,
			Amount:      amount,
			Timestamp:   now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	m.afterSettle(ctx, result)
	return result, nil
}

// afterSettle 成交后的通知与缓存，全部尽力而为，失败不影响已落库的结算
func (m *MatchEngine) afterSettle(ctx context.Context, r *model.MatchResult) {
	hlog.Infof("撮合成交, trade_id=%s, symbol=%s, price=%s, amount=%s, buy_order=%s, sell_order=%s",
		r.TradeID, r.Symbol, r.Price, r.Amount, r.BuyOrderID, r.SellOrderID)

	removeUserActiveOrder(ctx, r.BuyerID, r.BuyOrderID)
	removeUserActiveOrder(ctx, r.SellerID, r.SellOrderID)
	cacheTrade(ctx, r, 100)

	msg, err := json.Marshal(map[string]interface{}{
		"type":   "trade",
		"symbol": r.Symbol,
		"data":   r,
	})
	if err != nil {
		return
	}

	if m.broadcaster != nil {
		task := func() { m.broadcaster(r.Symbol, msg) }
		if engine.BroadcastPool != nil {
			_ = engine.BroadcastPool.Submit(task)
		} else {
			task()
		}
	}
	if m.unicaster != nil {
		m.unicaster(r.BuyerID, msg)
		if r.SellerID != r.BuyerID {
			m.unicaster(r.SellerID, msg)
		}
	}

	publishTradeEvent(ctx, r.TradeID, msg)
}
