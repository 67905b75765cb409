// Package stripe 实现 Stripe Checkout 渠道：创建 Checkout Session 下单，
// 异步 webhook 回调确认，回调签名按 t.body 的 HMAC-SHA256 校验。
package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/payment"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultTimeout           = 12 * time.Second
	defaultWebhookToleranceS = 300
)

// Client Stripe 渠道客户端，实现统一支付接口。
type Client struct {
	cfg        config.StripePaymentConfig
	httpClient *http.Client
	now        func() time.Time
}

// New 创建 Stripe 渠道
func New(cfg config.StripePaymentConfig) *Client {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.WebhookToleranceSeconds <= 0 {
		cfg.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (c *Client) WithClock(now func() time.Time) *Client {
	if now != nil {
		c.now = now
	}
	return c
}

// Name 渠道名称
func (c *Client) Name() string {
	return constants.PaymentProviderStripe
}

// Initiate 创建 Checkout Session
func (c *Client) Initiate(ctx context.Context, input payment.InitiateInput) (*payment.PendingPayment, error) {
	if strings.TrimSpace(c.cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" {
		return nil, fmt.Errorf("%w: order_no is required", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrConfigInvalid)
	}
	minorAmount, err := toMinorAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(input.Description)
	if subject == "" {
		subject = orderNo
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.cfg.SuccessURL)
	form.Set("cancel_url", c.cfg.CancelURL)
	form.Set("client_reference_id", orderNo)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(minorAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", subject)
	form.Set("metadata[order_id]", strconv.FormatUint(uint64(input.OrderID), 10))
	form.Set("metadata[order_no]", orderNo)
	form.Set("payment_intent_data[metadata][order_id]", strconv.FormatUint(uint64(input.OrderID), 10))
	form.Set("payment_intent_data[metadata][order_no]", orderNo)
	form.Add("payment_method_types[]", "card")

	respBody, statusCode, err := c.doFormRequest(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create checkout session status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	sessionID := strings.TrimSpace(readString(raw, "id"))
	payURL := strings.TrimSpace(readString(raw, "url"))
	if sessionID == "" || payURL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return &payment.PendingPayment{
		Provider: c.Name(),
		Ref:      sessionID,
		PayURL:   payURL,
		Raw:      raw,
	}, nil
}

// Confirm 按 session 查询支付状态（主动对账口径，webhook 为主路径）
func (c *Client) Confirm(ctx context.Context, input payment.ConfirmInput) (*payment.Confirmation, error) {
	sessionID := strings.TrimSpace(input.Ref)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrConfigInvalid)
	}
	path := fmt.Sprintf("/v1/checkout/sessions/%s", url.PathEscape(sessionID))
	respBody, statusCode, err := c.doJSONRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: query checkout session status %d", ErrResponseInvalid, statusCode)
	}
	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	confirmation := &payment.Confirmation{
		Ref:  strings.TrimSpace(readString(raw, "id")),
		Paid: strings.EqualFold(readString(raw, "payment_status"), "paid"),
		Raw:  raw,
	}
	if created := readInt64(raw, "created"); created > 0 {
		paidAt := time.Unix(created, 0)
		confirmation.PaidAt = &paidAt
	}
	return confirmation, nil
}

// WebhookEvent 解析后的 webhook 事件
type WebhookEvent struct {
	EventID   string
	EventType string
	OrderID   uint
	OrderNo   string
	Ref       string
	Paid      bool
	Raw       map[string]interface{}
}

// VerifyAndParseWebhook 校验签名并解析 webhook 事件。
// 签名头格式 t=<unix>,v1=<hex>，签名串为 "<t>.<body>"，带时间容差窗口。
func (c *Client) VerifyAndParseWebhook(signatureHeader string, body []byte) (*WebhookEvent, error) {
	if strings.TrimSpace(c.cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}

	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	if c.cfg.WebhookToleranceSeconds > 0 {
		delta := math.Abs(float64(c.now().Unix() - timestamp))
		if delta > float64(c.cfg.WebhookToleranceSeconds) {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
		}
	}
	expected := computeSignature(c.cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	eventRaw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(readString(eventRaw, "type"))
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	dataRaw, ok := eventRaw["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}
	objectRaw, ok := dataRaw["object"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}

	metadata := readMap(objectRaw, "metadata")
	event := &WebhookEvent{
		EventID:   strings.TrimSpace(readString(eventRaw, "id")),
		EventType: eventType,
		OrderID:   parseOrderID(metadata),
		OrderNo:   strings.TrimSpace(readString(metadata, "order_no")),
		Ref:       strings.TrimSpace(readString(objectRaw, "id")),
		Raw:       eventRaw,
	}
	switch strings.ToLower(eventType) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		event.Paid = strings.EqualFold(readString(objectRaw, "payment_status"), "paid") ||
			strings.EqualFold(readString(objectRaw, "payment_status"), "no_payment_required")
	case "payment_intent.succeeded":
		event.Paid = true
	}
	return event, nil
}

// SignPayload 按 webhook 签名算法计算签名（测试与回放工具用）
func (c *Client) SignPayload(timestamp int64, body []byte) string {
	return computeSignature(c.cfg.WebhookSecret, timestamp, body)
}

func (c *Client) doFormRequest(ctx context.Context, method, path string, form url.Values) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) doJSONRequest(ctx context.Context, method, path string) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

// toMinorAmount 金额转最小货币单位（两位小数货币）
func toMinorAmount(amount string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: amount is invalid", ErrConfigInvalid)
	}
	if parsed.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	minor := parsed.Shift(2).Round(0)
	return minor.IntPart(), nil
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0)
	for _, part := range strings.Split(signatureHeader, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func parseOrderID(metadata map[string]interface{}) uint {
	if len(metadata) == 0 {
		return 0
	}
	raw := strings.TrimSpace(readString(metadata, "order_id"))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil {
		return 0
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
