package admin

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/bottega-next/internal/http/handlers/shared"
	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/repository"
	"github.com/bottega-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Price       models.Money `json:"price" binding:"required"`
	Stock       int          `json:"stock"`
	IsActive    *bool        `json:"is_active"`
}

// ListProducts 管理端商品列表（含下架商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}

	product, err := h.ProductService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product query failed", err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.ProductService.Create(product); err != nil {
		respondError(c, response.CodeInternal, "product create failed", err)
		return
	}

	requestLog(c).Infow("admin_product_created", "product_id", product.ID, "name", product.Name)
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	product, err := h.ProductService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product query failed", err)
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.ProductService.Update(product); err != nil {
		respondError(c, response.CodeInternal, "product update failed", err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}

	if _, err := h.ProductService.Get(id); err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product query failed", err)
		return
	}

	if err := h.ProductService.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "product delete failed", err)
		return
	}
	response.SuccessWithMsg(c, "deleted", nil)
}
