package service

import "errors"

// 业务错误哨兵，处理器按 errors.Is 映射为接口响应。
var (
	// 订单
	ErrOrderEmpty          = errors.New("order has no items")
	ErrInvalidOrderItem    = errors.New("invalid order item")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrOrderNotPending     = errors.New("order is not awaiting payment")
	ErrPaymentRefMismatch  = errors.New("payment reference mismatch")
	ErrProductNotAvailable = errors.New("product not available")
	ErrStockInsufficient   = errors.New("insufficient stock")

	// 优惠码
	ErrDiscountNotFound    = errors.New("discount code not found")
	ErrDiscountInactive    = errors.New("discount code inactive")
	ErrDiscountExpired     = errors.New("discount code expired")
	ErrDiscountExhausted   = errors.New("discount code usage limit reached")
	ErrDiscountMinPurchase = errors.New("order total below discount minimum")
	ErrDiscountInvalid     = errors.New("discount code invalid")

	// 支付
	ErrPaymentProviderUnknown = errors.New("unknown payment provider")
	ErrGatewayFailed          = errors.New("payment gateway request failed")
	ErrWebhookSignature       = errors.New("webhook signature verification failed")

	// 购物车挽回
	ErrCartNotFound     = errors.New("abandoned cart not found")
	ErrCartEmpty        = errors.New("cart has no items")
	ErrCartEmailMissing = errors.New("cart has no email address")
	ErrCartRecovered    = errors.New("cart already recovered")

	// 认证
	ErrInvalidCredentials = errors.New("invalid username or password")
)
