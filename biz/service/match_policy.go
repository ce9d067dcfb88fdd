package service

import (
	"gorm.io/gorm"

	"spotex/biz/dal/pg"
	"spotex/biz/dec"
	"spotex/biz/model"
)

// MatchPolicy 对手单选择策略。SelectCounter 在事务内锁定并返回可成交的对手单，
// 返回 (nil, nil) 表示本次无法成交。部分成交策略可替换实现，结算流程不动
type MatchPolicy interface {
	SelectCounter(tx *gorm.DB, incoming *model.Order) (*model.Order, error)
}

// ExactQuantityPolicy 等量撮合：只取价格-时间最优的一笔对手单，
// 数量不等即放弃本次撮合，不向后找次优对手单。
// 代价是头部对手单数量不匹配时会一直挡住该价位，撤单前无法成交
type ExactQuantityPolicy struct{}

func (ExactQuantityPolicy) SelectCounter(tx *gorm.DB, incoming *model.Order) (*model.Order, error) {
	counter, err := pg.LockBestCounterOrder(tx, incoming)
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c, err := dec.Cmp(counter.Amount, incoming.Amount)
	if err != nil {
		return nil, err
	}
	if c != 0 {
		return nil, nil
	}
	return counter, nil
}
