package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newDiscountTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.DiscountCode{}, &models.DiscountRedemption{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func money(value float64) models.Money {
	return models.NewMoneyFromFloat(value)
}

func TestValidateRejectionOrder(t *testing.T) {
	db := newDiscountTestDB(t, "discount_validate")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewDiscountService(repository.NewDiscountRepository(db)).WithClock(func() time.Time { return now })

	if _, _, err := svc.Validate("MISSING", money(100)); !errors.Is(err, ErrDiscountNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}

	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	// 未启用且已过期：未启用优先报出
	inactive := &models.DiscountCode{
		Code: "INACTIVE", Type: constants.DiscountTypePercentage, Value: money(10),
		IsActive: false, ExpiresAt: &past,
	}
	if err := db.Create(inactive).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	// IsActive 为零值时会被 default:true 覆盖，显式落库 false
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate discount failed: %v", err)
	}
	if _, _, err := svc.Validate("INACTIVE", money(100)); !errors.Is(err, ErrDiscountInactive) {
		t.Fatalf("expected inactive, got: %v", err)
	}

	expired := &models.DiscountCode{
		Code: "EXPIRED", Type: constants.DiscountTypePercentage, Value: money(10),
		IsActive: true, ExpiresAt: &past,
	}
	if err := db.Create(expired).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	if _, _, err := svc.Validate("EXPIRED", money(100)); !errors.Is(err, ErrDiscountExpired) {
		t.Fatalf("expected expired, got: %v", err)
	}

	exhausted := &models.DiscountCode{
		Code: "USEDUP", Type: constants.DiscountTypePercentage, Value: money(10),
		IsActive: true, ExpiresAt: &future, MaxUses: 2, UsedCount: 2,
	}
	if err := db.Create(exhausted).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	if _, _, err := svc.Validate("USEDUP", money(100)); !errors.Is(err, ErrDiscountExhausted) {
		t.Fatalf("expected exhausted, got: %v", err)
	}

	minimum := &models.DiscountCode{
		Code: "BIGCART", Type: constants.DiscountTypePercentage, Value: money(10),
		IsActive: true, ExpiresAt: &future, MinPurchase: money(50),
	}
	if err := db.Create(minimum).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	if _, _, err := svc.Validate("BIGCART", money(49.99)); !errors.Is(err, ErrDiscountMinPurchase) {
		t.Fatalf("expected min purchase, got: %v", err)
	}
}

func TestValidatePercentageQuote(t *testing.T) {
	db := newDiscountTestDB(t, "discount_percentage")
	svc := NewDiscountService(repository.NewDiscountRepository(db))

	discount := &models.DiscountCode{
		Code: "TEN", Type: constants.DiscountTypePercentage, Value: money(10), IsActive: true,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	quote, matched, err := svc.Validate("ten", money(25))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if matched.ID != discount.ID {
		t.Fatalf("expected matched discount %d, got %d", discount.ID, matched.ID)
	}
	if !quote.Valid {
		t.Fatalf("expected valid quote: %+v", quote)
	}
	if !quote.DiscountAmount.Decimal.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected discount 2.50, got %s", quote.DiscountAmount.String())
	}
	if !quote.FinalTotal.Decimal.Equal(decimal.RequireFromString("22.5")) {
		t.Fatalf("expected final 22.50, got %s", quote.FinalTotal.String())
	}
}

func TestValidateFixedCappedAtSubtotal(t *testing.T) {
	db := newDiscountTestDB(t, "discount_fixed_cap")
	svc := NewDiscountService(repository.NewDiscountRepository(db))

	discount := &models.DiscountCode{
		Code: "BIGFIX", Type: constants.DiscountTypeFixed, Value: money(50), IsActive: true,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	quote, _, err := svc.Validate("BIGFIX", money(20))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !quote.DiscountAmount.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected discount capped at 20, got %s", quote.DiscountAmount.String())
	}
	if !quote.FinalTotal.Decimal.IsZero() {
		t.Fatalf("expected final 0, got %s", quote.FinalTotal.String())
	}
}

func TestConsumeExactlyOncePerOrder(t *testing.T) {
	db := newDiscountTestDB(t, "discount_consume")
	svc := NewDiscountService(repository.NewDiscountRepository(db))

	discount := &models.DiscountCode{
		Code: "ONCE", Type: constants.DiscountTypePercentage, Value: money(10),
		IsActive: true, MaxUses: 5,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	if err := svc.Consume(db, discount.ID, 42); err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	// 同一订单重复核销为无操作
	if err := svc.Consume(db, discount.ID, 42); err != nil {
		t.Fatalf("replay Consume error: %v", err)
	}

	var reloaded models.DiscountCode
	if err := db.First(&reloaded, discount.ID).Error; err != nil {
		t.Fatalf("load discount failed: %v", err)
	}
	if reloaded.UsedCount != 1 {
		t.Fatalf("expected used_count 1, got %d", reloaded.UsedCount)
	}

	// 不同订单正常计数
	if err := svc.Consume(db, discount.ID, 43); err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if err := db.First(&reloaded, discount.ID).Error; err != nil {
		t.Fatalf("load discount failed: %v", err)
	}
	if reloaded.UsedCount != 2 {
		t.Fatalf("expected used_count 2, got %d", reloaded.UsedCount)
	}
}

func TestCreateNormalizesCode(t *testing.T) {
	db := newDiscountTestDB(t, "discount_create")
	svc := NewDiscountService(repository.NewDiscountRepository(db))

	discount := &models.DiscountCode{
		Code: " save10 ", Type: constants.DiscountTypePercentage, Value: money(10), IsActive: true,
	}
	if err := svc.Create(discount); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if discount.Code != "SAVE10" {
		t.Fatalf("expected uppercase code, got %q", discount.Code)
	}

	if err := svc.Create(&models.DiscountCode{Code: "BAD", Type: "unknown", Value: money(10)}); !errors.Is(err, ErrDiscountInvalid) {
		t.Fatalf("expected invalid type rejection, got: %v", err)
	}
}
