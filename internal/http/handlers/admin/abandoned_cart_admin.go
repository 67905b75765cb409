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

// ListAbandonedCarts 弃单列表与统计
func (h *Handler) ListAbandonedCarts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	carts, total, stats, err := h.RecoveryService.ListCarts(repository.AbandonedCartListFilter{
		Page:     page,
		PageSize: pageSize,
		Filter:   strings.TrimSpace(c.DefaultQuery("filter", "all")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "abandoned cart list failed", err)
		return
	}

	response.Success(c, gin.H{
		"carts":      carts,
		"stats":      stats,
		"pagination": response.NewPagination(page, pageSize, total),
	})
}

// RemindAbandonedCart 发送挽回提醒邮件（铸造专属折扣码）
func (h *Handler) RemindAbandonedCart(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "cart id invalid", nil)
		return
	}

	result, err := h.RecoveryService.SendReminder(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			respondError(c, response.CodeNotFound, "cart not found", nil)
		case errors.Is(err, service.ErrCartRecovered):
			respondError(c, response.CodeConflict, "cart already recovered", nil)
		case errors.Is(err, service.ErrCartEmailMissing):
			respondError(c, response.CodeBadRequest, "cart has no email", nil)
		default:
			respondError(c, response.CodeInternal, "cart reminder failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_cart_reminder_sent", "cart_id", id, "discount_code", result.DiscountCode)
	response.Success(c, result)
}

// RecoverAbandonedCart 手动标记弃单已挽回
func (h *Handler) RecoverAbandonedCart(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "cart id invalid", nil)
		return
	}

	cart, err := h.RecoveryService.MarkRecovered(id)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			respondError(c, response.CodeNotFound, "cart not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "cart recover failed", err)
		return
	}
	response.Success(c, cart)
}

// DeleteAbandonedCart 删除弃单快照
func (h *Handler) DeleteAbandonedCart(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "cart id invalid", nil)
		return
	}

	if err := h.RecoveryService.DeleteCart(id); err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			respondError(c, response.CodeNotFound, "cart not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "cart delete failed", err)
		return
	}
	response.SuccessWithMsg(c, "deleted", nil)
}
