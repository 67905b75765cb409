// Package paypal 实现 PayPal 渠道的同步模拟：不访问外部网关，
// 按 Orders v2 的响应结构就地生成已完成的订单，发起后立即可确认。
package paypal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/payment"

	"github.com/google/uuid"
)

var ErrOrderUnknown = errors.New("paypal order unknown")

// Provider PayPal 模拟渠道
type Provider struct {
	cfg config.PaypalPaymentConfig
	now func() time.Time

	mu     sync.Mutex
	orders map[string]map[string]interface{}
}

// New 创建 PayPal 模拟渠道
func New(cfg config.PaypalPaymentConfig) *Provider {
	return &Provider{
		cfg:    cfg,
		now:    time.Now,
		orders: make(map[string]map[string]interface{}),
	}
}

// WithClock 注入时钟（测试用）
func (p *Provider) WithClock(now func() time.Time) *Provider {
	if now != nil {
		p.now = now
	}
	return p
}

// Name 渠道名称
func (p *Provider) Name() string {
	return constants.PaymentProviderPaypal
}

// Initiate 生成模拟的 PayPal 订单
func (p *Provider) Initiate(ctx context.Context, input payment.InitiateInput) (*payment.PendingPayment, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" {
		return nil, errors.New("paypal: order_no is required")
	}
	ref := fmt.Sprintf("PAYPAL-%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:17])
	raw := map[string]interface{}{
		"id":     ref,
		"intent": "CAPTURE",
		"status": "APPROVED",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": orderNo,
				"amount": map[string]interface{}{
					"currency_code": strings.ToUpper(strings.TrimSpace(input.Currency)),
					"value":         input.Amount,
				},
				"description": input.Description,
			},
		},
		"create_time": p.now().UTC().Format(time.RFC3339),
	}
	if p.cfg.BrandName != "" {
		raw["brand_name"] = p.cfg.BrandName
	}

	p.mu.Lock()
	p.orders[ref] = raw
	p.mu.Unlock()

	return &payment.PendingPayment{
		Provider:    p.Name(),
		Ref:         ref,
		Synchronous: true,
		Raw:         raw,
	}, nil
}

// Confirm 捕获模拟订单，置为 COMPLETED
func (p *Provider) Confirm(ctx context.Context, input payment.ConfirmInput) (*payment.Confirmation, error) {
	ref := strings.TrimSpace(input.Ref)

	p.mu.Lock()
	raw, ok := p.orders[ref]
	if ok {
		raw["status"] = "COMPLETED"
		raw["update_time"] = p.now().UTC().Format(time.RFC3339)
	}
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderUnknown, ref)
	}
	now := p.now()
	return &payment.Confirmation{
		Ref:    ref,
		Paid:   true,
		PaidAt: &now,
		Raw:    raw,
	}, nil
}
