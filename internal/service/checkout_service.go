package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/payment"
)

// CheckoutService 结账编排服务：下单、发起支付、同步渠道就地确认。
type CheckoutService struct {
	orderService    *OrderService
	recoveryService *RecoveryService
	registry        *payment.Registry
	paymentCfg      config.PaymentConfig
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(orderService *OrderService, recoveryService *RecoveryService, registry *payment.Registry, paymentCfg config.PaymentConfig) *CheckoutService {
	return &CheckoutService{
		orderService:    orderService,
		recoveryService: recoveryService,
		registry:        registry,
		paymentCfg:      paymentCfg,
	}
}

// CheckoutInput 结账输入
type CheckoutInput struct {
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	Items           []CreateOrderItem
	DiscountCode    string
	Provider        string
	SessionID       string
}

// CheckoutResult 结账结果
type CheckoutResult struct {
	Order  *models.Order `json:"order"`
	Paid   bool          `json:"paid"`
	Ref    string        `json:"payment_ref,omitempty"`
	PayURL string        `json:"pay_url,omitempty"`
}

// Checkout 创建订单并走统一的 Initiate/Confirm 支付流水线。
// 同步渠道（发起即确认）在本次请求内完成落账，异步渠道等待 webhook。
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	providerName := strings.TrimSpace(input.Provider)
	if providerName == "" {
		providerName = s.paymentCfg.Provider
	}
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, ErrPaymentProviderUnknown
	}

	order, err := s.orderService.CreateOrder(CreateOrderInput{
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		ShippingAddress: input.ShippingAddress,
		Items:           input.Items,
		DiscountCode:    input.DiscountCode,
	})
	if err != nil {
		return nil, err
	}

	pending, err := provider.Initiate(ctx, payment.InitiateInput{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		Amount:      order.TotalAmount.String(),
		Currency:    order.Currency,
		Description: "Order " + order.OrderNo,
	})
	if err != nil {
		logger.Errorw("payment_initiate_failed",
			"order_id", order.ID,
			"provider", provider.Name(),
			"error", err,
		)
		return nil, errors.Join(ErrGatewayFailed, err)
	}

	result := &CheckoutResult{
		Order:  order,
		Ref:    pending.Ref,
		PayURL: pending.PayURL,
	}

	if pending.Synchronous {
		confirmation, err := provider.Confirm(ctx, payment.ConfirmInput{
			Ref:     pending.Ref,
			OrderNo: order.OrderNo,
		})
		if err != nil {
			logger.Errorw("payment_confirm_failed",
				"order_id", order.ID,
				"provider", provider.Name(),
				"error", err,
			)
			return nil, errors.Join(ErrGatewayFailed, err)
		}
		if confirmation.Paid {
			updated, err := s.orderService.MarkPaid(order.ID, provider.Name(), confirmation.Ref)
			if err != nil {
				return nil, err
			}
			result.Order = updated
			result.Paid = true
		}
	}

	// 结账成功后会话购物车视为已挽回。
	if input.SessionID != "" {
		if err := s.recoveryService.MarkRecoveredBySession(input.SessionID); err != nil && !errors.Is(err, ErrCartNotFound) {
			logger.Warnw("cart_recover_after_checkout_failed",
				"session_id", input.SessionID,
				"error", err,
			)
		}
	}
	return result, nil
}

// ConfirmWebhookPayment webhook 确认路径：按订单与外部引用落账。
func (s *CheckoutService) ConfirmWebhookPayment(orderID uint, providerName, ref string) (*models.Order, error) {
	return s.orderService.MarkPaid(orderID, providerName, ref)
}
