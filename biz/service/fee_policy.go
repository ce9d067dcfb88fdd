package service

import (
	"spotex/biz/dec"
	"spotex/biz/model"
)

// FeePolicy 给定买卖双方订单和成交额，算出双方各自承担的手续费。
// 换 maker/taker 费率表只需替换该函数，结算流程不动
type FeePolicy func(buyOrder, sellOrder *model.Order, usdVolume string) (buyerFee, sellerFee string, err error)

// BuyerPaysFee 现行费率：买方承担成交额的1.5%，卖方免费
func BuyerPaysFee(buyOrder, sellOrder *model.Order, usdVolume string) (string, string, error) {
	fee, err := dec.Mul(usdVolume, dec.FeeRate)
	if err != nil {
		return "", "", err
	}
	return fee, "0", nil
}
