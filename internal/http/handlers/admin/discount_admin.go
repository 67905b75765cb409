package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/bottega-next/internal/http/handlers/shared"
	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/repository"
	"github.com/bottega-next/internal/service"

	"github.com/gin-gonic/gin"
)

// DiscountRequest 优惠码创建/更新请求
type DiscountRequest struct {
	Code        string       `json:"code" binding:"required"`
	Type        string       `json:"type" binding:"required"`
	Value       models.Money `json:"value" binding:"required"`
	MinPurchase models.Money `json:"min_purchase"`
	MaxUses     int          `json:"max_uses"`
	IsActive    *bool        `json:"is_active"`
	ExpiresAt   *time.Time   `json:"expires_at"`
}

// ListDiscounts 优惠码列表
func (h *Handler) ListDiscounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.DiscountListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	discounts, total, err := h.DiscountService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "discount list failed", err)
		return
	}
	response.SuccessWithPage(c, discounts, response.NewPagination(page, pageSize, total))
}

// CreateDiscount 创建优惠码
func (h *Handler) CreateDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	discount := &models.DiscountCode{
		Code:        req.Code,
		Type:        req.Type,
		Value:       req.Value,
		MinPurchase: req.MinPurchase,
		MaxUses:     req.MaxUses,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
	}
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}

	if err := h.DiscountService.Create(discount); err != nil {
		if errors.Is(err, service.ErrDiscountInvalid) {
			respondError(c, response.CodeBadRequest, "discount code invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "discount create failed", err)
		return
	}

	requestLog(c).Infow("admin_discount_created", "discount_id", discount.ID, "code", discount.Code)
	response.Success(c, discount)
}

// UpdateDiscount 更新优惠码
func (h *Handler) UpdateDiscount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "discount id invalid", nil)
		return
	}

	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	discount, err := h.DiscountRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "discount query failed", err)
		return
	}
	if discount == nil {
		respondError(c, response.CodeNotFound, "discount not found", nil)
		return
	}

	discount.Code = req.Code
	discount.Type = req.Type
	discount.Value = req.Value
	discount.MinPurchase = req.MinPurchase
	discount.MaxUses = req.MaxUses
	discount.ExpiresAt = req.ExpiresAt
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}

	if err := h.DiscountService.Update(discount); err != nil {
		if errors.Is(err, service.ErrDiscountInvalid) {
			respondError(c, response.CodeBadRequest, "discount code invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "discount update failed", err)
		return
	}
	response.Success(c, discount)
}

// DeleteDiscount 删除优惠码
func (h *Handler) DeleteDiscount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "discount id invalid", nil)
		return
	}

	if err := h.DiscountService.Delete(id); err != nil {
		if errors.Is(err, service.ErrDiscountNotFound) {
			respondError(c, response.CodeNotFound, "discount not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "discount delete failed", err)
		return
	}
	response.SuccessWithMsg(c, "deleted", nil)
}
