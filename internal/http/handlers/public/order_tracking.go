package public

import (
	"strings"

	"github.com/bottega-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// TrackOrder 公开订单追踪：按订单号查询，邮箱为可选过滤条件
func (h *Handler) TrackOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Query("order_no"))
	email := strings.TrimSpace(c.Query("email"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "order_no is required", nil)
		return
	}

	order, err := h.OrderService.GetOrderByNoAndEmail(orderNo, email)
	if err != nil {
		respondWithMappedError(c, err, trackErrorRules, response.CodeInternal, "order lookup failed")
		return
	}

	timeline := h.TrackingService.Project(order)
	response.Success(c, timeline)
}
