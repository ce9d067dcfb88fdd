package model

// Asset 用户持仓，(user_id, symbol) 唯一，amount 可用 / locked_amount 挂单冻结
// 两个字段任何时刻都不允许为负
type Asset struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	UserID       string `gorm:"column:user_id;not null;uniqueIndex:uniq_user_symbol" json:"user_id"`
	Symbol       string `gorm:"column:symbol;size:10;not null;uniqueIndex:uniq_user_symbol" json:"symbol"`
	Amount       string `gorm:"column:amount;type:decimal(20,8);not null;default:0" json:"amount"`
	LockedAmount string `gorm:"column:locked_amount;type:decimal(20,8);not null;default:0" json:"locked_amount"`
	CreatedAt    int64  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    int64  `gorm:"column:updated_at" json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}
