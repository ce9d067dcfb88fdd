package service

import "errors"

// 下单/撤单对外错误，handler 按此映射状态码。
// 撮合的各类"当前不可成交"不在此列，它们不是错误，引擎静默返回
var (
	ErrInvalidSide           = errors.New("invalid side")
	ErrInvalidAmount         = errors.New("invalid price or amount")
	ErrInvalidSymbol         = errors.New("invalid symbol")
	ErrUserNotFound          = errors.New("user not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInsufficientFunds     = errors.New("insufficient usd balance")
	ErrInsufficientInventory = errors.New("insufficient asset amount")
	ErrForbidden             = errors.New("order belongs to another user")
	ErrOrderNotOpen          = errors.New("only open orders can be cancelled")
	ErrAssetMissing          = errors.New("asset row not found for this symbol")
)
