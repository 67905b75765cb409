package payment

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrProviderUnknown = errors.New("payment provider unknown")
	ErrConfirmFailed   = errors.New("payment confirmation failed")
)

// InitiateInput 发起支付输入
type InitiateInput struct {
	OrderID     uint
	OrderNo     string
	Amount      string
	Currency    string
	Description string
}

// PendingPayment 发起支付结果。
// Synchronous 表示该渠道不依赖外部回调，发起后应立即调用 Confirm 对账。
type PendingPayment struct {
	Provider    string                 `json:"provider"`
	Ref         string                 `json:"ref"`
	PayURL      string                 `json:"pay_url,omitempty"`
	Synchronous bool                   `json:"-"`
	Raw         map[string]interface{} `json:"-"`
}

// ConfirmInput 确认支付输入
type ConfirmInput struct {
	Ref     string
	OrderNo string
}

// Confirmation 支付确认结果
type Confirmation struct {
	Ref    string
	Paid   bool
	PaidAt *time.Time
	Raw    map[string]interface{}
}

// Provider 支付渠道统一接口。
// 所有渠道走同一条 Initiate/Confirm 流水线，调用方不做渠道分支。
type Provider interface {
	Name() string
	Initiate(ctx context.Context, input InitiateInput) (*PendingPayment, error)
	Confirm(ctx context.Context, input ConfirmInput) (*Confirmation, error)
}

// Registry 支付渠道注册表
type Registry struct {
	providers map[string]Provider
}

// NewRegistry 创建注册表
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		r.providers[strings.ToLower(p.Name())] = p
	}
	return r
}

// Get 按名称获取渠道
func (r *Registry) Get(name string) (Provider, error) {
	if r == nil {
		return nil, ErrProviderUnknown
	}
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrProviderUnknown
	}
	return p, nil
}

// Names 已注册渠道名称
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
