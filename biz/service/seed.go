package service

import (
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"spotex/biz/dal/pg"
	"spotex/biz/model"
)

// EnsureDemoData 空库时灌入演示账户：一个有USD的买家、一个有币的卖家，
// 以及一对做市账户。非空库直接跳过
func EnsureDemoData() error {
	n, err := pg.CountUsers()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	users := []model.User{
		{UserID: "demo-buyer", Name: "Demo Buyer", Email: "buyer@example.com", Balance: "10000", CreatedAt: now, UpdatedAt: now},
		{UserID: "demo-seller", Name: "Demo Seller", Email: "seller@example.com", Balance: "0", CreatedAt: now, UpdatedAt: now},
		{UserID: "maker-buy", Name: "Maker Buy", Email: "maker.buy@example.com", Balance: "5000", CreatedAt: now, UpdatedAt: now},
		{UserID: "maker-sell", Name: "Maker Sell", Email: "maker.sell@example.com", Balance: "0", CreatedAt: now, UpdatedAt: now},
	}
	for i := range users {
		if err := pg.CreateUser(&users[i]); err != nil {
			return err
		}
	}

	assets := []model.Asset{
		{UserID: "demo-seller", Symbol: "BTC", Amount: "2", LockedAmount: "0", CreatedAt: now, UpdatedAt: now},
		{UserID: "demo-seller", Symbol: "ETH", Amount: "20", LockedAmount: "0", CreatedAt: now, UpdatedAt: now},
		{UserID: "maker-sell", Symbol: "BTC", Amount: "5", LockedAmount: "0", CreatedAt: now, UpdatedAt: now},
		{UserID: "maker-sell", Symbol: "ETH", Amount: "50", LockedAmount: "0", CreatedAt: now, UpdatedAt: now},
	}
	for i := range assets {
		if err := pg.CreateAsset(&assets[i]); err != nil {
			return err
		}
	}

	hlog.Infof("演示数据已写入, users=%d, assets=%d", len(users), len(assets))
	return nil
}
