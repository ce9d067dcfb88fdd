package pg

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spotex/biz/model"
)

// CreateOrder 插入订单，事务内调用
func CreateOrder(tx *gorm.DB, order *model.Order) error {
	return tx.Create(order).Error
}

// LockOrder 行级排他锁取订单
func LockOrder(tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockBestCounterOrder 按价格优先、时间优先取最优对手单并锁行。
// 买单找价格不高于限价的最低卖单，卖单找价格不低于限价的最高买单
func LockBestCounterOrder(tx *gorm.DB, incoming *model.Order) (*model.Order, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("symbol = ? AND status = ?", incoming.Symbol, model.OrderStatusOpen)

	if incoming.Side == model.SideBuy {
		q = q.Where("side = ? AND price <= ?", model.SideSell, incoming.Price).
			Order("price asc")
	} else {
		q = q.Where("side = ? AND price >= ?", model.SideBuy, incoming.Price).
			Order("price desc")
	}

	var counter model.Order
	err := q.Order("created_at asc").Order("order_id asc").First(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// UpdateOrderStatus 事务内更新订单状态
func UpdateOrderStatus(tx *gorm.DB, orderID, status string) error {
	return tx.Model(&model.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UnixMilli(),
		}).Error
}

// GetOrder 无锁读取单个订单
func GetOrder(orderID string) (*model.Order, error) {
	var order model.Order
	err := GormDB.Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListUserOrders 用户订单列表，status 为空查全部
func ListUserOrders(userID, status string, limit int) ([]model.Order, error) {
	var orders []model.Order
	db := GormDB.Model(&model.Order{}).Where("user_id = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at desc").Limit(limit).Find(&orders).Error
	return orders, err
}

// ListOpenOrders 某交易对全部挂单，订单簿投影用
func ListOpenOrders(symbol string) ([]model.Order, error) {
	var orders []model.Order
	err := GormDB.Where("symbol = ? AND status = ?", symbol, model.OrderStatusOpen).
		Order("created_at asc").
		Find(&orders).Error
	return orders, err
}
