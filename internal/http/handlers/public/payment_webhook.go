package public

import (
	"io"
	"net/http"
	"strings"

	"github.com/bottega-next/internal/constants"

	"github.com/gin-gonic/gin"
)

// StripeWebhook Stripe webhook 回调。
// 回调接口返回真实 HTTP 状态码：签名非法回 400，业务上无法归属的事件
// 记录告警后仍回 200，避免网关无限重试。
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	signature := strings.TrimSpace(c.GetHeader("Stripe-Signature"))
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	event, err := h.StripeClient.VerifyAndParseWebhook(signature, body)
	if err != nil {
		log.Warnw("stripe_webhook_signature_invalid", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	if !event.Paid {
		log.Infow("stripe_webhook_ignored",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		c.JSON(http.StatusOK, gin.H{"accepted": true, "updated": false})
		return
	}

	orderID := event.OrderID
	if orderID == 0 && event.OrderNo != "" {
		order, err := h.OrderRepo.GetByOrderNo(event.OrderNo)
		if err != nil {
			log.Errorw("stripe_webhook_order_lookup_failed", "order_no", event.OrderNo, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
			return
		}
		if order != nil {
			orderID = order.ID
		}
	}
	if orderID == 0 {
		// 事件合法但无法归属订单：吞掉并告警，交给人工对账。
		log.Warnw("stripe_webhook_order_unresolved",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"order_no", event.OrderNo,
		)
		c.JSON(http.StatusOK, gin.H{"accepted": true, "updated": false})
		return
	}

	order, err := h.CheckoutService.ConfirmWebhookPayment(orderID, constants.PaymentProviderStripe, event.Ref)
	if err != nil {
		log.Warnw("stripe_webhook_confirm_failed",
			"event_id", event.EventID,
			"order_id", orderID,
			"error", err,
		)
		c.JSON(http.StatusOK, gin.H{"accepted": true, "updated": false})
		return
	}

	log.Infow("stripe_webhook_processed",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", order.Status,
	)
	c.JSON(http.StatusOK, gin.H{"accepted": true, "updated": true, "order_no": order.OrderNo})
}
