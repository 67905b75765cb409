// Package testpay 提供开发与演示环境的假支付渠道：发起即成功，无外部依赖。
package testpay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/payment"

	"github.com/google/uuid"
)

// Provider 假支付渠道
type Provider struct{}

// New 创建假支付渠道
func New() *Provider {
	return &Provider{}
}

// Name 渠道名称
func (p *Provider) Name() string {
	return constants.PaymentProviderTest
}

// Initiate 发起支付，立即生成确认引用
func (p *Provider) Initiate(ctx context.Context, input payment.InitiateInput) (*payment.PendingPayment, error) {
	ref := fmt.Sprintf("TEST-%s", strings.ToUpper(uuid.NewString()))
	return &payment.PendingPayment{
		Provider:    p.Name(),
		Ref:         ref,
		Synchronous: true,
		Raw: map[string]interface{}{
			"order_no": input.OrderNo,
			"amount":   input.Amount,
			"currency": input.Currency,
		},
	}, nil
}

// Confirm 确认支付，恒为成功
func (p *Provider) Confirm(ctx context.Context, input payment.ConfirmInput) (*payment.Confirmation, error) {
	now := time.Now()
	return &payment.Confirmation{
		Ref:    input.Ref,
		Paid:   true,
		PaidAt: &now,
	}, nil
}
