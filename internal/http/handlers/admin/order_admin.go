package admin

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/bottega-next/internal/http/handlers/shared"
	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/repository"
	"github.com/bottega-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
		Email:    strings.TrimSpace(c.Query("email")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}

	order, err := h.OrderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order query failed", err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatusRequest 更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus 更新订单状态（只允许向前推进或取消）
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	order, err := h.OrderService.UpdateStatus(id, strings.TrimSpace(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "status transition not allowed", nil)
		default:
			respondError(c, response.CodeInternal, "order status update failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_order_status_updated", "order_id", order.ID, "status", order.Status)
	response.Success(c, order)
}

// SetTrackingRequest 设置物流单号请求
type SetTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// SetOrderTracking 设置订单物流单号
func (h *Handler) SetOrderTracking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}

	var req SetTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	order, err := h.OrderService.SetTrackingNumber(id, strings.TrimSpace(req.TrackingNumber))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking number update failed", err)
		return
	}
	response.Success(c, order)
}
