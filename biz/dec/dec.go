// Package dec 定长8位小数运算，订单金额/数量统一走字符串，不允许浮点
package dec

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale 金额与数量统一保留8位小数
const Scale = 8

// FeeRate 成交手续费率，仅买方承担
const FeeRate = "0.015"

func parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

func fixed(d decimal.Decimal) string {
	// Round 对非负数即四舍五入，系统内金额/数量恒非负
	return d.Round(Scale).StringFixed(Scale)
}

// Add 加法，结果保留8位小数
func Add(a, b string) (string, error) {
	da, err := parse(a)
	if err != nil {
		return "", err
	}
	db, err := parse(b)
	if err != nil {
		return "", err
	}
	return fixed(da.Add(db)), nil
}

// Sub 减法，结果保留8位小数
func Sub(a, b string) (string, error) {
	da, err := parse(a)
	if err != nil {
		return "", err
	}
	db, err := parse(b)
	if err != nil {
		return "", err
	}
	return fixed(da.Sub(db)), nil
}

// Mul 乘法，先算全精度积再舍入到8位
func Mul(a, b string) (string, error) {
	da, err := parse(a)
	if err != nil {
		return "", err
	}
	db, err := parse(b)
	if err != nil {
		return "", err
	}
	return fixed(da.Mul(db)), nil
}

// Cmp 三态比较：-1/0/1。所有金额比较必须走这里，禁止直接比字符串
func Cmp(a, b string) (int, error) {
	da, err := parse(a)
	if err != nil {
		return 0, err
	}
	db, err := parse(b)
	if err != nil {
		return 0, err
	}
	return da.Cmp(db), nil
}

// IsPositive 校验输入是合法小数、大于0且不超过8位小数，下单参数校验用。
// 超过8位的输入入库会被列精度舍掉，和按原串算出的冻结额对不上
func IsPositive(s string) bool {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Equal(d.Truncate(Scale))
}
