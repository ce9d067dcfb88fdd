package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"spotex/biz/dal/pg"
	"spotex/biz/service"
)

// GetProfile 查询用户资料：USD余额 + 全部持仓（含冻结）
func GetProfile(ctx context.Context, c *app.RequestContext) {
	userID := string(c.Query("user_id"))
	if userID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing user_id"})
		return
	}
	user, err := pg.GetUser(userID)
	if err != nil {
		c.JSON(consts.StatusNotFound, map[string]interface{}{"error": "user not found"})
		return
	}
	assets, err := pg.ListUserAssets(userID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"user_id": user.UserID,
		"name":    user.Name,
		"balance": user.Balance,
		"assets":  assets,
	})
}

// GetHoldings 查询用户持仓
func GetHoldings(ctx context.Context, c *app.RequestContext) {
	userID := string(c.Query("user_id"))
	if userID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing user_id"})
		return
	}
	assets, err := pg.ListUserAssets(userID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, assets)
}

// GetActiveOrders 查询用户活跃订单ID（Redis缓存）
func GetActiveOrders(ctx context.Context, c *app.RequestContext) {
	userID := string(c.Query("user_id"))
	if userID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing user_id"})
		return
	}
	ids, err := service.GetUserActiveOrders(ctx, userID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{"user_id": userID, "order_ids": ids})
}
