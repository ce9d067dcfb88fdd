package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"spotex/biz/dal/pg"
	"spotex/biz/service"
)

func parseLimit(limitStr string, defaultLimit int) int {
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

// GetDepth 获取深度（订单簿快照），优先走 Redis 短TTL缓存
func GetDepth(ctx context.Context, c *app.RequestContext) {
	symbol := string(c.Query("symbol"))
	if symbol == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing symbol"})
		return
	}
	bidLimit := parseLimit(string(c.Query("bid_limit")), 20)
	askLimit := parseLimit(string(c.Query("ask_limit")), 20)

	bids, asks, ok := service.GetCachedDepthSnapshot(ctx, symbol)
	if !ok {
		var err error
		bids, asks, err = service.DepthSnapshot(symbol, 0, 0)
		if err != nil {
			c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
			return
		}
		service.CacheDepthSnapshot(ctx, symbol, bids, asks)
	}
	if len(bids) > bidLimit {
		bids = bids[:bidLimit]
	}
	if len(asks) > askLimit {
		asks = asks[:askLimit]
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"bids":      bids,
		"asks":      asks,
		"bid_limit": bidLimit,
		"ask_limit": askLimit,
	})
}

// GetTrades 获取某交易对最新成交
func GetTrades(ctx context.Context, c *app.RequestContext) {
	symbol := string(c.Query("symbol"))
	limit := parseLimit(string(c.Query("limit")), 50)
	trades, err := pg.ListTrades(symbol, limit)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"trades": trades,
	})
}

// GetMyTrades 获取用户相关成交（买方或卖方）
func GetMyTrades(ctx context.Context, c *app.RequestContext) {
	userID := string(c.Query("user_id"))
	if userID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing user_id"})
		return
	}
	limit := parseLimit(string(c.Query("limit")), 50)
	trades, err := pg.ListUserTrades(userID, limit)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, trades)
}

// GetTicker 获取ticker（最新成交价）
func GetTicker(ctx context.Context, c *app.RequestContext) {
	symbol := string(c.Query("symbol"))
	trades, _ := pg.ListTrades(symbol, 1)
	var lastPrice string
	if len(trades) > 0 {
		lastPrice = trades[0].Price
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"symbol":     symbol,
		"last_price": lastPrice,
	})
}
