package public

import (
	"strconv"
	"strings"

	handlershared "github.com/bottega-next/internal/http/handlers/shared"
	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListProducts 公开商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	result, err := h.ProductService.ListActive(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}
	response.SuccessWithPage(c, result.Products, response.NewPagination(page, pageSize, result.Total))
}
