package pg

import (
	"gorm.io/gorm"

	"spotex/biz/model"
)

// InsertTrade 追加成交流水，事务内调用
func InsertTrade(tx *gorm.DB, trade *model.Trade) error {
	return tx.Create(trade).Error
}

// ListTrades 查询某交易对最新成交
func ListTrades(symbol string, limit int) ([]model.Trade, error) {
	var trades []model.Trade
	db := GormDB.Model(&model.Trade{})
	if symbol != "" {
		db = db.Where("symbol = ?", symbol)
	}
	err := db.Order("timestamp desc").Limit(limit).Find(&trades).Error
	return trades, err
}

// ListUserTrades 用户相关成交（买方或卖方）
func ListUserTrades(userID string, limit int) ([]model.Trade, error) {
	var trades []model.Trade
	err := GormDB.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("timestamp desc").Limit(limit).
		Find(&trades).Error
	return trades, err
}
