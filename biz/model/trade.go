package model

// Trade 成交流水（GORM），只追加，成交后不改不删
type Trade struct {
	TradeID     string `gorm:"primaryKey;column:trade_id" json:"trade_id"`
	BuyOrderID  string `gorm:"column:buy_order_id;not null" json:"buy_order_id"`
	SellOrderID string `gorm:"column:sell_order_id;not null" json:"sell_order_id"`
	Symbol      string `gorm:"column:symbol;size:10;not null;index:idx_symbol_ts" json:"symbol"`
	Price       string `gorm:"column:price;type:decimal(20,8);not null" json:"price"`
	Amount      string `gorm:"column:amount;type:decimal(20,8);not null" json:"amount"`
	UsdVolume   string `gorm:"column:usd_volume;type:decimal(20,8);not null" json:"usd_volume"`
	FeeUsd      string `gorm:"column:fee_usd;type:decimal(20,8);not null" json:"fee_usd"`
	BuyerID     string `gorm:"column:buyer_id;index" json:"buyer_id"`
	SellerID    string `gorm:"column:seller_id;index" json:"seller_id"`
	Timestamp   int64  `gorm:"column:timestamp;index:idx_symbol_ts" json:"timestamp"`
}

func (Trade) TableName() string {
	return "trades"
}

// MatchResult 撮合成功后的回报，供通知端广播，不参与账务
type MatchResult struct {
	Symbol      string `json:"symbol"`
	BuyOrderID  string `json:"buy_order_id"`
	SellOrderID string `json:"sell_order_id"`
	BuyerID     string `json:"buyer_id"`
	SellerID    string `json:"seller_id"`
	TradeID     string `json:"trade_id"`
	Price       string `json:"price"`
	Amount      string `json:"amount"`
	Timestamp   int64  `json:"timestamp"`
}
