package public

import (
	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	CustomerName    string                `json:"customer_name" binding:"required"`
	CustomerEmail   string                `json:"customer_email" binding:"required"`
	ShippingAddress string                `json:"shipping_address"`
	Items           []CheckoutItemRequest `json:"items" binding:"required"`
	DiscountCode    string                `json:"discount_code"`
	Provider        string                `json:"provider"`
	SessionID       string                `json:"session_id"`
}

// CheckoutItemRequest 结账条目
type CheckoutItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// Checkout 下单并发起支付
func (h *Handler) Checkout(c *gin.Context) {
	log := requestLog(c)
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	items := make([]service.CreateOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
		DiscountCode:    req.DiscountCode,
		Provider:        req.Provider,
		SessionID:       req.SessionID,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
		return
	}

	log.Infow("checkout_completed",
		"order_id", result.Order.ID,
		"order_no", result.Order.OrderNo,
		"paid", result.Paid,
	)
	response.Success(c, result)
}
