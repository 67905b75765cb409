package public

import (
	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/models"

	"github.com/gin-gonic/gin"
)

// ValidateDiscountRequest 优惠码校验请求
type ValidateDiscountRequest struct {
	Code     string       `json:"code" binding:"required"`
	Subtotal models.Money `json:"subtotal" binding:"required"`
}

// ValidateDiscount 校验优惠码并返回抵扣金额
func (h *Handler) ValidateDiscount(c *gin.Context) {
	var req ValidateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	quote, _, err := h.DiscountService.Validate(req.Code, req.Subtotal)
	if err != nil {
		respondWithMappedError(c, err, discountErrorRules, response.CodeInternal, "discount validation failed")
		return
	}
	response.Success(c, quote)
}
