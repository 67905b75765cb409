package public

import (
	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveCartRequest 保存购物车快照请求
type SaveCartRequest struct {
	SessionID string                    `json:"session_id" binding:"required"`
	Email     string                    `json:"email"`
	Items     []models.CartItemSnapshot `json:"items" binding:"required"`
}

// SaveCart 保存会话购物车快照（结账前留痕，用于挽回）
func (h *Handler) SaveCart(c *gin.Context) {
	var req SaveCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	cart, err := h.RecoveryService.SaveCart(service.SaveCartInput{
		SessionID: req.SessionID,
		Email:     req.Email,
		Items:     req.Items,
	})
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart save failed")
		return
	}
	response.Success(c, cart)
}
