package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/queue"
	"github.com/bottega-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	discountService *DiscountService
	queueClient     *queue.Client
	shopCfg         config.ShopConfig
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, discountService *DiscountService, queueClient *queue.Client, shopCfg config.ShopConfig) *OrderService {
	return &OrderService{
		db:              db,
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		discountService: discountService,
		queueClient:     queueClient,
		shopCfg:         shopCfg,
	}
}

// statusRank 订单状态的单调序：只允许沿序前进（可跳步），禁止回退。
var statusRank = map[string]int{
	constants.OrderStatusPending:    0,
	constants.OrderStatusPaid:       1,
	constants.OrderStatusProcessing: 2,
	constants.OrderStatusShipped:    3,
	constants.OrderStatusDelivered:  4,
}

// terminalStatuses 终态集合，进入后不再迁移。
var terminalStatuses = map[string]bool{
	constants.OrderStatusDelivered: true,
	constants.OrderStatusCancelled: true,
}

// CanTransition 判断订单状态迁移是否合法
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	if terminalStatuses[from] {
		return false
	}
	if to == constants.OrderStatusCancelled {
		return true
	}
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	Items           []CreateOrderItem
	DiscountCode    string
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	ProductID uint
	Quantity  int
}

// OrderQuote 订单金额分解
type OrderQuote struct {
	Subtotal       models.Money `json:"subtotal"`
	DiscountAmount models.Money `json:"discount_amount"`
	ShippingFee    models.Money `json:"shipping_fee"`
	TotalAmount    models.Money `json:"total_amount"`
}

// CreateOrder 创建订单并固定金额快照
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	email, err := normalizeCustomerEmail(input.CustomerEmail)
	if err != nil {
		return nil, err
	}
	items, err := mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrOrderEmpty
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	productByID := make(map[uint]*models.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	subtotal := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, ok := productByID[item.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		if product.Stock < item.Quantity {
			return nil, ErrStockInsufficient
		}
		lineTotal := product.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:  product.ID,
			Name:       product.Name,
			UnitPrice:  product.Price,
			Quantity:   item.Quantity,
			TotalPrice: models.NewMoneyFromDecimal(lineTotal),
		})
	}

	// 优惠码按商品小计校验与抵扣，运费不参与折扣。
	discountAmount := decimal.Zero
	var discountID *uint
	if strings.TrimSpace(input.DiscountCode) != "" {
		quote, discount, err := s.discountService.Validate(input.DiscountCode, models.NewMoneyFromDecimal(subtotal))
		if err != nil {
			return nil, err
		}
		discountAmount = quote.DiscountAmount.Decimal
		discountID = &discount.ID
	}

	shippingFee := s.ShippingFeeFor(models.NewMoneyFromDecimal(subtotal))
	total := subtotal.Sub(discountAmount).Add(shippingFee.Decimal)
	if total.IsNegative() {
		total = decimal.Zero
	}

	order := &models.Order{
		OrderNo:         generateOrderNo(),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   email,
		Status:          constants.OrderStatusPending,
		Currency:        s.shopCfg.Currency,
		TotalAmount:     models.NewMoneyFromDecimal(total),
		ShippingFee:     shippingFee,
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		DiscountID:      discountID,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, orderItems)
	}); err != nil {
		return nil, err
	}
	order.Items = orderItems

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"total_amount", order.TotalAmount.String(),
		"shipping_fee", order.ShippingFee.String(),
		"item_count", len(orderItems),
	)
	return order, nil
}

// ShippingFeeFor 按商品小计计算运费：达到免邮门槛为 0，否则收固定运费。
func (s *OrderService) ShippingFeeFor(subtotal models.Money) models.Money {
	threshold := decimal.NewFromFloat(s.shopCfg.FreeShippingThreshold)
	if subtotal.Decimal.GreaterThanOrEqual(threshold) {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return models.NewMoneyFromFloat(s.shopCfg.ShippingFee)
}

// GetOrder 获取订单详情
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNoAndEmail 按订单号获取订单（公开追踪口径）。
// 邮箱为可选过滤条件，仅作轻量校验，不是鉴权边界。
func (s *OrderService) GetOrderByNoAndEmail(orderNo, email string) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if strings.TrimSpace(email) == "" {
		order, err = s.orderRepo.GetByOrderNo(orderNo)
	} else {
		var normalized string
		normalized, err = normalizeCustomerEmail(email)
		if err != nil {
			return nil, err
		}
		order, err = s.orderRepo.GetByOrderNoAndEmail(orderNo, normalized)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 管理端订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// UpdateStatus 更新订单状态，仅允许沿单调序前进或取消。
// 用条件更新落库，并发竞争时只有读到的旧状态仍然成立才会生效。
func (s *OrderService) UpdateStatus(id uint, toStatus string) (*models.Order, error) {
	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, toStatus) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.orderRepo.UpdateStatusCAS(id, []string{order.Status}, toStatus, nil)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrInvalidTransition
	}

	logger.Infow("order_status_updated",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", toStatus,
	)
	s.enqueueStatusEmail(order.ID, toStatus)

	order.Status = toStatus
	return order, nil
}

// SetTrackingNumber 设置物流单号
func (s *OrderService) SetTrackingNumber(id uint, trackingNumber string) (*models.Order, error) {
	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	trackingNumber = strings.TrimSpace(trackingNumber)
	if err := s.orderRepo.SetTrackingNumber(id, trackingNumber); err != nil {
		return nil, err
	}
	order.TrackingNumber = trackingNumber
	return order, nil
}

// MarkPaid 支付确认落账。以 pending->paid 的条件更新做唯一赢家判定：
// 赢家负责扣库存、核销优惠码、推送通知；重放（同一支付引用）直接幂等返回。
func (s *OrderService) MarkPaid(orderID uint, provider, paymentRef string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != constants.OrderStatusPending {
		// 同一支付引用的重放视为无操作成功，不同引用拒绝。
		if order.PaymentRef != "" && order.PaymentRef == paymentRef {
			logger.Infow("order_payment_replay_ignored",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"payment_ref", paymentRef,
			)
			return order, nil
		}
		if order.PaymentRef != "" {
			return nil, ErrPaymentRefMismatch
		}
		return nil, ErrOrderNotPending
	}

	now := time.Now()
	won := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		won, err = s.orderRepo.WithTx(tx).UpdateStatusCAS(
			order.ID,
			[]string{constants.OrderStatusPending},
			constants.OrderStatusPaid,
			map[string]interface{}{
				"payment_provider": provider,
				"payment_ref":      paymentRef,
				"paid_at":          now,
			},
		)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		for _, item := range order.Items {
			ok, err := s.productRepo.WithTx(tx).DecrementStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				logger.Warnw("order_stock_decrement_skipped",
					"order_id", order.ID,
					"product_id", item.ProductID,
					"quantity", item.Quantity,
				)
			}
		}

		if order.DiscountID != nil {
			if err := s.discountService.Consume(tx, *order.DiscountID, order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !won {
		// 条件更新输给了并发确认方：读回落库状态，不重复扣库存、核销和通知。
		persisted, err := s.GetOrder(order.ID)
		if err != nil {
			return nil, err
		}
		if persisted.PaymentRef != "" && persisted.PaymentRef != paymentRef {
			return nil, ErrPaymentRefMismatch
		}
		logger.Infow("order_payment_replay_ignored",
			"order_id", persisted.ID,
			"order_no", persisted.OrderNo,
			"payment_ref", paymentRef,
		)
		return persisted, nil
	}

	logger.Infow("order_paid",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"provider", provider,
		"payment_ref", paymentRef,
	)
	s.enqueueStatusEmail(order.ID, constants.OrderStatusPaid)

	order.Status = constants.OrderStatusPaid
	order.PaymentProvider = provider
	order.PaymentRef = paymentRef
	order.PaidAt = &now
	return order, nil
}

func (s *OrderService) enqueueStatusEmail(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: orderID,
		Status:  status,
	})
	if err != nil {
		logger.Warnw("order_status_email_enqueue_failed",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
	}
}

// normalizeCustomerEmail 规范化并校验买家邮箱
func normalizeCustomerEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// mergeCreateOrderItems 合并重复商品的下单项
func mergeCreateOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	merged := make([]CreateOrderItem, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		if pos, ok := index[item.ProductID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("BN%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
