package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"spotex/biz/dal/redis"
	"spotex/biz/model"
)

// Redis 只做读侧加速，全部尽力而为，账本永远以 Postgres 为准

// cacheTrade 最新成交缓存到 Redis List，限长
func cacheTrade(ctx context.Context, r *model.MatchResult, maxLen int64) {
	if redis.Client == nil {
		return
	}
	key := "trades:" + r.Symbol
	val, err := json.Marshal(r)
	if err != nil {
		return
	}
	redis.Client.LPush(ctx, key, val)
	redis.Client.LTrim(ctx, key, 0, maxLen-1)
}

// GetCachedTrades 读取最新成交缓存
func GetCachedTrades(ctx context.Context, symbol string, limit int64) ([]model.MatchResult, error) {
	if redis.Client == nil {
		return nil, nil
	}
	vals, err := redis.Client.LRange(ctx, "trades:"+symbol, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	results := make([]model.MatchResult, 0, len(vals))
	for _, v := range vals {
		var r model.MatchResult
		if err := json.Unmarshal([]byte(v), &r); err == nil {
			results = append(results, r)
		}
	}
	return results, nil
}

// cacheUserActiveOrder 缓存用户活跃订单ID
func cacheUserActiveOrder(ctx context.Context, userID, orderID string) {
	if redis.Client == nil || userID == "" || orderID == "" {
		return
	}
	key := "user:active_orders:" + userID
	redis.Client.SAdd(ctx, key, orderID)
	redis.Client.Expire(ctx, key, 24*time.Hour)
}

// removeUserActiveOrder 从缓存移除用户活跃订单ID
func removeUserActiveOrder(ctx context.Context, userID, orderID string) {
	if redis.Client == nil || userID == "" || orderID == "" {
		return
	}
	redis.Client.SRem(ctx, "user:active_orders:"+userID, orderID)
}

// GetUserActiveOrders 查询用户活跃订单ID列表
func GetUserActiveOrders(ctx context.Context, userID string) ([]string, error) {
	if redis.Client == nil || userID == "" {
		return nil, nil
	}
	return redis.Client.SMembers(ctx, "user:active_orders:"+userID).Result()
}

// CacheDepthSnapshot 订单簿快照短TTL缓存
func CacheDepthSnapshot(ctx context.Context, symbol string, bids, asks []PriceLevel) {
	if redis.Client == nil {
		return
	}
	val, err := json.Marshal(map[string]interface{}{"bids": bids, "asks": asks})
	if err != nil {
		return
	}
	if err := redis.Client.Set(ctx, "orderbook:"+symbol, val, 5*time.Second).Err(); err != nil {
		hlog.Errorf("Redis Set 失败: %v", err)
	}
}

// GetCachedDepthSnapshot 读取订单簿快照缓存，miss 返回 false
func GetCachedDepthSnapshot(ctx context.Context, symbol string) ([]PriceLevel, []PriceLevel, bool) {
	if redis.Client == nil {
		return nil, nil, false
	}
	val, err := redis.Client.Get(ctx, "orderbook:"+symbol).Bytes()
	if err != nil {
		return nil, nil, false
	}
	var snapshot struct {
		Bids []PriceLevel `json:"bids"`
		Asks []PriceLevel `json:"asks"`
	}
	if err := json.Unmarshal(val, &snapshot); err != nil {
		return nil, nil, false
	}
	return snapshot.Bids, snapshot.Asks, true
}
