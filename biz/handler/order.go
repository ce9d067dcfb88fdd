package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"spotex/biz/service"
)

type SubmitOrderRequest struct {
	UserID string `json:"user_id"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

type CancelOrderRequest struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
}

// statusForErr 业务错误到HTTP状态码
func statusForErr(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSide),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidSymbol):
		return consts.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInsufficientInventory):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, service.ErrForbidden):
		return consts.StatusForbidden
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return consts.StatusNotFound
	case errors.Is(err, service.ErrOrderNotOpen),
		errors.Is(err, service.ErrAssetMissing):
		return consts.StatusConflict
	default:
		return consts.StatusInternalServerError
	}
}

// SubmitOrder RESTful 下单接口
func SubmitOrder(ctx context.Context, c *app.RequestContext) {
	var req SubmitOrderRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if req.UserID == "" || req.Symbol == "" || req.Side == "" || req.Price == "" || req.Amount == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing required fields"})
		return
	}
	order, err := service.PlaceOrder(ctx, req.UserID, req.Symbol, req.Side, req.Price, req.Amount)
	if err != nil {
		c.JSON(statusForErr(err), map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, order)
}

// CancelOrder 撤单接口
func CancelOrder(ctx context.Context, c *app.RequestContext) {
	var req CancelOrderRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "invalid request"})
		return
	}
	if req.UserID == "" || req.OrderID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing required fields"})
		return
	}
	order, err := service.CancelOrder(ctx, req.UserID, req.OrderID)
	if err != nil {
		c.JSON(statusForErr(err), map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, order)
}

// GetOrder 查询单个订单
func GetOrder(ctx context.Context, c *app.RequestContext) {
	orderID := c.Param("id")
	order, err := service.GetOrder(orderID)
	if err != nil {
		c.JSON(statusForErr(err), map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, order)
}

// ListOrders 查询用户订单列表
func ListOrders(ctx context.Context, c *app.RequestContext) {
	userID := string(c.Query("user_id"))
	status := string(c.Query("status"))
	if userID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing user_id"})
		return
	}
	limit := 50
	if l := string(c.Query("limit")); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}
	orders, err := service.ListUserOrders(userID, status, limit)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, orders)
}
