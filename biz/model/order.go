package model

// 订单方向
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// 订单状态，open 之后只会进入 filled 或 cancelled，终态不可逆
const (
	OrderStatusOpen      = "open"
	OrderStatusFilled    = "filled"
	OrderStatusCancelled = "cancelled"
)

// Order 订单模型（GORM）。amount 下单即固定，不做部分成交
type Order struct {
	OrderID   string `gorm:"primaryKey;column:order_id" json:"order_id"`
	UserID    string `gorm:"column:user_id;index;not null" json:"user_id"`
	Symbol    string `gorm:"column:symbol;size:10;not null;index:idx_book,priority:1" json:"symbol"`
	Side      string `gorm:"column:side;size:4;not null;index:idx_book,priority:3" json:"side"`
	Price     string `gorm:"column:price;type:decimal(20,8);not null;index:idx_book,priority:4" json:"price"`
	Amount    string `gorm:"column:amount;type:decimal(20,8);not null" json:"amount"`
	Status    string `gorm:"column:status;size:10;not null;index:idx_book,priority:2" json:"status"`
	CreatedAt int64  `gorm:"column:created_at;index:idx_book,priority:5" json:"created_at"`
	UpdatedAt int64  `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
