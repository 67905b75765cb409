package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newOrderTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.DiscountCode{},
		&models.DiscountRedemption{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newTestOrderService(db *gorm.DB) *OrderService {
	discountService := NewDiscountService(repository.NewDiscountRepository(db))
	return NewOrderService(
		db,
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		discountService,
		nil,
		config.ShopConfig{
			Currency:              "EUR",
			ShippingFee:           5,
			FreeShippingThreshold: 30,
		},
	)
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    models.NewMoneyFromFloat(price),
		Stock:    stock,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusPaid, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, true},
		{constants.OrderStatusPaid, constants.OrderStatusDelivered, true},
		{constants.OrderStatusPaid, constants.OrderStatusPending, false},
		{constants.OrderStatusShipped, constants.OrderStatusPaid, false},
		{constants.OrderStatusPending, constants.OrderStatusPending, false},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusShipped, constants.OrderStatusCancelled, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPaid, false},
		{constants.OrderStatusCancelled, constants.OrderStatusCancelled, false},
		{constants.OrderStatusPending, "unknown", false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestMergeCreateOrderItems(t *testing.T) {
	items := []CreateOrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}
	merged, err := mergeCreateOrderItems(items)
	if err != nil {
		t.Fatalf("mergeCreateOrderItems error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 items, got %d", len(merged))
	}
	if merged[0].ProductID != 1 || merged[0].Quantity != 3 {
		t.Fatalf("unexpected merged item: %+v", merged[0])
	}
}

func TestMergeCreateOrderItemsRejectsInvalid(t *testing.T) {
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 0, Quantity: 1}}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected invalid order item, got: %v", err)
	}
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 1, Quantity: 0}}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected invalid order item, got: %v", err)
	}
}

func TestCreateOrderAppliesShippingFeeBelowThreshold(t *testing.T) {
	db := newOrderTestDB(t, "order_shipping_fee")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 50)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if !order.ShippingFee.Decimal.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected shipping fee 5, got %s", order.ShippingFee.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected total 25, got %s", order.TotalAmount.String())
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.OrderNo == "" {
		t.Fatalf("expected generated order no")
	}
}

func TestCreateOrderFreeShippingAtThreshold(t *testing.T) {
	db := newOrderTestDB(t, "order_free_shipping")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 50)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if !order.ShippingFee.Decimal.IsZero() {
		t.Fatalf("expected free shipping, got %s", order.ShippingFee.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected total 30, got %s", order.TotalAmount.String())
	}
}

func TestCreateOrderShippingOnPreDiscountSubtotal(t *testing.T) {
	db := newOrderTestDB(t, "order_discount_shipping")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 50)

	discount := &models.DiscountCode{
		Code:     "SAVE50",
		Type:     constants.DiscountTypePercentage,
		Value:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		IsActive: true,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	// 小计 30 达到免邮门槛，折扣只削减商品金额，不影响免邮判定。
	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 3}},
		DiscountCode:  "SAVE50",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if !order.ShippingFee.Decimal.IsZero() {
		t.Fatalf("expected free shipping, got %s", order.ShippingFee.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected total 15, got %s", order.TotalAmount.String())
	}
	if order.DiscountID == nil || *order.DiscountID != discount.ID {
		t.Fatalf("expected discount id recorded on order")
	}
}

func TestCreateOrderRejections(t *testing.T) {
	db := newOrderTestDB(t, "order_rejections")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 1)
	inactive := &models.Product{Name: "Old", Price: models.NewMoneyFromFloat(10), Stock: 10, IsActive: false}
	if err := db.Create(inactive).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	// IsActive 为零值时会被 default:true 覆盖，显式落库 false
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	if _, err := svc.CreateOrder(CreateOrderInput{
		CustomerEmail: "ada@example.com",
	}); !errors.Is(err, ErrOrderEmpty) {
		t.Fatalf("expected order empty, got: %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		CustomerEmail: "not-an-email",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
	}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got: %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: inactive.ID, Quantity: 1}},
	}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got: %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 5}},
	}); !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected stock insufficient, got: %v", err)
	}
}

func TestMarkPaidDecrementsStockAndConsumesDiscount(t *testing.T) {
	db := newOrderTestDB(t, "order_mark_paid")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 10)

	discount := &models.DiscountCode{
		Code:     "TEN",
		Type:     constants.DiscountTypePercentage,
		Value:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		IsActive: true,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
		DiscountCode:  "TEN",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	paid, err := svc.MarkPaid(order.ID, constants.PaymentProviderTest, "TEST-REF-1")
	if err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid status, got %s", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	var got models.Product
	if err := db.First(&got, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if got.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", got.Stock)
	}

	var reloaded models.DiscountCode
	if err := db.First(&reloaded, discount.ID).Error; err != nil {
		t.Fatalf("load discount failed: %v", err)
	}
	if reloaded.UsedCount != 1 {
		t.Fatalf("expected used_count 1, got %d", reloaded.UsedCount)
	}
}

// staleReadOrderRepo 按需返回一次未支付快照，模拟并发确认下的过期读。
type staleReadOrderRepo struct {
	repository.OrderRepository
	stalePending bool
}

func (r *staleReadOrderRepo) GetByID(id uint) (*models.Order, error) {
	order, err := r.OrderRepository.GetByID(id)
	if err != nil || order == nil {
		return order, err
	}
	if r.stalePending {
		r.stalePending = false
		order.Status = constants.OrderStatusPending
		order.PaymentProvider = ""
		order.PaymentRef = ""
		order.PaidAt = nil
	}
	return order, nil
}

func TestMarkPaidLostRaceReturnsPersistedState(t *testing.T) {
	db := newOrderTestDB(t, "order_lost_race")
	winner := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 10)

	order, err := winner.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if _, err := winner.MarkPaid(order.ID, constants.PaymentProviderStripe, "cs_winner"); err != nil {
		t.Fatalf("winner MarkPaid error: %v", err)
	}

	staleRepo := &staleReadOrderRepo{OrderRepository: repository.NewOrderRepository(db), stalePending: true}
	loser := NewOrderService(
		db,
		staleRepo,
		repository.NewProductRepository(db),
		NewDiscountService(repository.NewDiscountRepository(db)),
		nil,
		config.ShopConfig{Currency: "EUR", ShippingFee: 5, FreeShippingThreshold: 30},
	)

	// 同一支付引用输掉条件更新：返回落库的赢家状态，不报错
	got, err := loser.MarkPaid(order.ID, constants.PaymentProviderPaypal, "cs_winner")
	if err != nil {
		t.Fatalf("lost update with same ref should be a no-op: %v", err)
	}
	if got.PaymentProvider != constants.PaymentProviderStripe || got.PaymentRef != "cs_winner" {
		t.Fatalf("expected persisted winner state, got %s %s", got.PaymentProvider, got.PaymentRef)
	}
	if got.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid status, got %s", got.Status)
	}

	// 不同支付引用输掉条件更新：拒绝
	staleRepo.stalePending = true
	if _, err := loser.MarkPaid(order.ID, constants.PaymentProviderPaypal, "PAYPAL-loser"); !errors.Is(err, ErrPaymentRefMismatch) {
		t.Fatalf("expected payment ref mismatch, got: %v", err)
	}

	// 库存只被赢家扣过一次
	var stored models.Product
	if err := db.First(&stored, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if stored.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", stored.Stock)
	}
}

func TestMarkPaidReplaySameRefIsNoop(t *testing.T) {
	db := newOrderTestDB(t, "order_mark_paid_replay")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 10)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if _, err := svc.MarkPaid(order.ID, constants.PaymentProviderTest, "TEST-REF-1"); err != nil {
		t.Fatalf("first MarkPaid error: %v", err)
	}

	replayed, err := svc.MarkPaid(order.ID, constants.PaymentProviderTest, "TEST-REF-1")
	if err != nil {
		t.Fatalf("replay MarkPaid error: %v", err)
	}
	if replayed.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid status on replay, got %s", replayed.Status)
	}

	// 库存只扣一次
	var got models.Product
	if err := db.First(&got, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if got.Stock != 8 {
		t.Fatalf("expected stock 8 after replay, got %d", got.Stock)
	}

	if _, err := svc.MarkPaid(order.ID, constants.PaymentProviderTest, "TEST-REF-2"); !errors.Is(err, ErrPaymentRefMismatch) {
		t.Fatalf("expected payment ref mismatch, got: %v", err)
	}
}

func TestUpdateStatusMonotonic(t *testing.T) {
	db := newOrderTestDB(t, "order_update_status")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 10)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	// 允许跳步前进
	updated, err := svc.UpdateStatus(order.ID, constants.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}

	// 禁止回退
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusPaid); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}

	// 非终态可取消
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel error: %v", err)
	}

	// 终态后不可再迁移
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusShipped); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from cancelled, got: %v", err)
	}
}

func TestSetTrackingNumber(t *testing.T) {
	db := newOrderTestDB(t, "order_tracking_number")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 10)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if _, err := svc.SetTrackingNumber(order.ID, " TRACK-123 "); err != nil {
		t.Fatalf("SetTrackingNumber error: %v", err)
	}
	reloaded, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("GetOrder error: %v", err)
	}
	if reloaded.TrackingNumber != "TRACK-123" {
		t.Fatalf("expected trimmed tracking number, got %q", reloaded.TrackingNumber)
	}
}

func TestGetOrderByNoAndEmail(t *testing.T) {
	db := newOrderTestDB(t, "order_by_no_email")
	svc := newTestOrderService(db)
	product := createTestProduct(t, db, "Mug", 10, 10)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Ada",
		CustomerEmail: "Ada@Example.com",
		Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	got, err := svc.GetOrderByNoAndEmail(order.OrderNo, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetOrderByNoAndEmail error: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("expected order %d, got %d", order.ID, got.ID)
	}

	if _, err := svc.GetOrderByNoAndEmail(order.OrderNo, "other@example.com"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}

	got, err = svc.GetOrderByNoAndEmail(order.OrderNo, "")
	if err != nil {
		t.Fatalf("lookup without email filter error: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("expected order %d without email filter, got %d", order.ID, got.ID)
	}
}
