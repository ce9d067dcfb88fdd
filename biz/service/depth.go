package service

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"

	"spotex/biz/dal/pg"
	"spotex/biz/dec"
	"spotex/biz/model"
)

// 测试替换点
var listOpenOrdersFn = pg.ListOpenOrders

// 订单簿读侧投影：把挂单按价位聚合并排序，只服务行情展示，
// 撮合永远直查数据库，不读这里

// PriceLevel 一个价位的聚合挂单量
type PriceLevel struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
	Count  int    `json:"count"`
}

// 价格比较走 decimal，字符串比较会被位数骗
type priceDescComparator struct{}

func (priceDescComparator) Compare(lhs, rhs interface{}) int {
	l := lhs.(decimal.Decimal)
	r := rhs.(decimal.Decimal)
	return r.Cmp(l)
}

func (priceDescComparator) CalcScore(key interface{}) float64 {
	return -key.(decimal.Decimal).InexactFloat64()
}

type priceAscComparator struct{}

func (priceAscComparator) Compare(lhs, rhs interface{}) int {
	l := lhs.(decimal.Decimal)
	r := rhs.(decimal.Decimal)
	return l.Cmp(r)
}

func (priceAscComparator) CalcScore(key interface{}) float64 {
	return key.(decimal.Decimal).InexactFloat64()
}

// BuildDepth 把某交易对的挂单聚合成买降/卖升两侧价位表
func BuildDepth(orders []model.Order) (bids, asks []PriceLevel) {
	buys := skiplist.New(priceDescComparator{})
	sells := skiplist.New(priceAscComparator{})

	for _, o := range orders {
		if o.Status != model.OrderStatusOpen {
			continue
		}
		price, err := decimal.NewFromString(o.Price)
		if err != nil {
			continue
		}

		var list *skiplist.SkipList
		switch o.Side {
		case model.SideBuy:
			list = buys
		case model.SideSell:
			list = sells
		default:
			continue
		}

		if elem := list.Get(price); elem != nil {
			level := elem.Value.(*PriceLevel)
			sum, err := dec.Add(level.Amount, o.Amount)
			if err != nil {
				continue
			}
			level.Amount = sum
			level.Count++
		} else {
			amount, err := dec.Add(o.Amount, "0")
			if err != nil {
				continue
			}
			list.Set(price, &PriceLevel{
				Price:  price.StringFixed(dec.Scale),
				Amount: amount,
				Count:  1,
			})
		}
	}

	bids = collectLevels(buys)
	asks = collectLevels(sells)
	return bids, asks
}

func collectLevels(list *skiplist.SkipList) []PriceLevel {
	levels := make([]PriceLevel, 0, list.Len())
	for elem := list.Front(); elem != nil; elem = elem.Next() {
		levels = append(levels, *elem.Value.(*PriceLevel))
	}
	return levels
}

// DepthSnapshot 查库并聚合某交易对的订单簿
func DepthSnapshot(symbol string, bidLimit, askLimit int) (bids, asks []PriceLevel, err error) {
	orders, err := listOpenOrdersFn(symbol)
	if err != nil {
		return nil, nil, err
	}
	bids, asks = BuildDepth(orders)
	if bidLimit > 0 && len(bids) > bidLimit {
		bids = bids[:bidLimit]
	}
	if askLimit > 0 && len(asks) > askLimit {
		asks = asks[:askLimit]
	}
	return bids, asks, nil
}
