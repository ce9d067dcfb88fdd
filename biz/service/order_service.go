package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/gorm"

	"spotex/biz/dal/pg"
	"spotex/biz/dec"
	"spotex/biz/model"
	"spotex/util"
)

// PlaceOrder 下单：买单冻结 price*amount 的USD，卖单把 amount 从可用划到冻结，
// 订单以 open 入库。事务提交成功后才把撮合任务写入队列，
// 保证撮合端不会看到未提交的订单
func PlaceOrder(ctx context.Context, userID, symbol, side, price, amount string) (*model.Order, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	side = strings.ToLower(strings.TrimSpace(side))

	if symbol == "" || len(symbol) > 10 {
		return nil, ErrInvalidSymbol
	}
	if !dec.IsPositive(price) || !dec.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	if side != model.SideBuy && side != model.SideSell {
		return nil, ErrInvalidSide
	}

	orderID, err := util.GenerateOrderID()
	if err != nil {
		return nil, err
	}

	var order *model.Order
	err = pg.GormDB.Transaction(func(tx *gorm.DB) error {
		if side == model.SideBuy {
			user, err := pg.LockUser(tx, userID)
			if err == gorm.ErrRecordNotFound {
				return ErrUserNotFound
			}
			if err != nil {
				return err
			}

			cost, err := dec.Mul(amount, price)
			if err != nil {
				return err
			}
			c, err := dec.Cmp(user.Balance, cost)
			if err != nil {
				return err
			}
			if c < 0 {
				return ErrInsufficientFunds
			}

			user.Balance, err = dec.Sub(user.Balance, cost)
			if err != nil {
				return err
			}
			if err := pg.SaveUserBalance(tx, user); err != nil {
				return err
			}
		} else {
			// 卖单不补建持仓行：没有持仓行就是没有库存
			asset, err := pg.LockAsset(tx, userID, symbol)
			if err == gorm.ErrRecordNotFound {
				return ErrInsufficientInventory
			}
			if err != nil {
				return err
			}

			c, err := dec.Cmp(asset.Amount, amount)
			if err != nil {
				return err
			}
			if c < 0 {
				return ErrInsufficientInventory
			}

			asset.Amount, err = dec.Sub(asset.Amount, amount)
			if err != nil {
				return err
			}
			asset.LockedAmount, err = dec.Add(asset.LockedAmount, amount)
			if err != nil {
				return err
			}
			if err := pg.SaveAssetAmounts(tx, asset); err != nil {
				return err
			}
		}

		now := time.Now().UnixMilli()
		order = &model.Order{
			OrderID:   orderID,
			UserID:    userID,
			Symbol:    symbol,
			Side:      side,
			Price:     price,
			Amount:    amount,
			Status:    model.OrderStatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return pg.CreateOrder(tx, order)
	})
	if err != nil {
		return nil, err
	}

	// 入队失败不回滚订单：队列至少一次投递，订单留在 open，可由后续撮合触达
	if err := enqueueMatchFn(ctx, order.OrderID); err != nil {
		hlog.Errorf("撮合任务入队失败, order_id=%s, err=%v", order.OrderID, err)
	}
	cacheUserActiveOrder(ctx, userID, order.OrderID)

	hlog.Infof("下单成功, order_id=%s, user_id=%s, symbol=%s, side=%s, price=%s, amount=%s",
		order.OrderID, userID, symbol, side, price, amount)
	return order, nil
}

// CancelOrder 撤单：只有 open 且属于本人的订单可撤，
// 买单退回冻结的USD，卖单把冻结数量划回可用，状态置 cancelled，全程同一事务
func CancelOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	var cancelled *model.Order
	err := pg.GormDB.Transaction(func(tx *gorm.DB) error {
		order, err := pg.LockOrder(tx, orderID)
		if err == gorm.ErrRecordNotFound {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		if order.UserID != userID {
			return ErrForbidden
		}
		if order.Status != model.OrderStatusOpen {
			return ErrOrderNotOpen
		}

		if order.Side == model.SideBuy {
			user, err := pg.LockUser(tx, userID)
			if err != nil {
				return err
			}
			refund, err := dec.Mul(order.Amount, order.Price)
			if err != nil {
				return err
			}
			user.Balance, err = dec.Add(user.Balance, refund)
			if err != nil {
				return err
			}
			if err := pg.SaveUserBalance(tx, user); err != nil {
				return err
			}
		} else {
			asset, err := pg.LockAsset(tx, userID, order.Symbol)
			if err == gorm.ErrRecordNotFound {
				return ErrAssetMissing
			}
			if err != nil {
				return err
			}
			asset.Amount, err = dec.Add(asset.Amount, order.Amount)
			if err != nil {
				return err
			}
			asset.LockedAmount, err = dec.Sub(asset.LockedAmount, order.Amount)
			if err != nil {
				return err
			}
			if err := pg.SaveAssetAmounts(tx, asset); err != nil {
				return err
			}
		}

		if err := pg.UpdateOrderStatus(tx, orderID, model.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	removeUserActiveOrder(ctx, userID, orderID)
	hlog.Infof("撤单成功, order_id=%s, user_id=%s", orderID, userID)
	return cancelled, nil
}

// GetOrder 查询单个订单
func GetOrder(orderID string) (*model.Order, error) {
	order, err := pg.GetOrder(orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// ListUserOrders 用户订单列表
func ListUserOrders(userID, status string, limit int) ([]model.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return pg.ListUserOrders(userID, status, limit)
}
