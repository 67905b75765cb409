package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newRecoveryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AbandonedCart{}, &models.DiscountCode{}, &models.DiscountRedemption{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newTestRecoveryService(db *gorm.DB) *RecoveryService {
	return NewRecoveryService(
		repository.NewAbandonedCartRepository(db),
		NewDiscountService(repository.NewDiscountRepository(db)),
		nil,
		config.RecoveryConfig{DiscountPercent: 10, DiscountExpireDays: 7},
	)
}

func testCartItems() []models.CartItemSnapshot {
	return []models.CartItemSnapshot{
		{ProductID: 1, Name: "Mug", Price: models.NewMoneyFromFloat(10), Quantity: 2},
	}
}

func TestSaveCartUpsertsPerSession(t *testing.T) {
	db := newRecoveryTestDB(t, "recovery_save")
	svc := newTestRecoveryService(db)

	cart, err := svc.SaveCart(SaveCartInput{SessionID: "sess-1", Items: testCartItems()})
	if err != nil {
		t.Fatalf("SaveCart error: %v", err)
	}

	// 同会话再次保存做覆盖更新，不新建记录
	updated, err := svc.SaveCart(SaveCartInput{
		SessionID: "sess-1",
		Email:     "Ada@Example.com",
		Items: []models.CartItemSnapshot{
			{ProductID: 1, Name: "Mug", Price: models.NewMoneyFromFloat(10), Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("second SaveCart error: %v", err)
	}
	if updated.ID != cart.ID {
		t.Fatalf("expected same cart id, got %d and %d", cart.ID, updated.ID)
	}
	if updated.Email != "ada@example.com" {
		t.Fatalf("expected lowered email, got %q", updated.Email)
	}
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 3 {
		t.Fatalf("expected replaced items, got %+v", updated.Items)
	}

	var count int64
	if err := db.Model(&models.AbandonedCart{}).Count(&count).Error; err != nil {
		t.Fatalf("count carts failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single cart row, got %d", count)
	}
}

func TestSaveCartRejections(t *testing.T) {
	db := newRecoveryTestDB(t, "recovery_save_reject")
	svc := newTestRecoveryService(db)

	if _, err := svc.SaveCart(SaveCartInput{SessionID: " ", Items: testCartItems()}); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected cart not found, got: %v", err)
	}
	if _, err := svc.SaveCart(SaveCartInput{SessionID: "sess-1"}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty, got: %v", err)
	}
}

func TestSendReminderMintsSingleUseCode(t *testing.T) {
	db := newRecoveryTestDB(t, "recovery_reminder")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRecoveryService(db).WithClock(func() time.Time { return now })

	cart, err := svc.SaveCart(SaveCartInput{SessionID: "sess-1", Email: "ada@example.com", Items: testCartItems()})
	if err != nil {
		t.Fatalf("SaveCart error: %v", err)
	}

	result, err := svc.SendReminder(cart.ID)
	if err != nil {
		t.Fatalf("SendReminder error: %v", err)
	}
	if !result.Cart.ReminderSent {
		t.Fatalf("expected reminder_sent to be set")
	}
	wantPrefix := fmt.Sprintf("BACK%d-", cart.ID)
	if !strings.HasPrefix(result.DiscountCode, wantPrefix) {
		t.Fatalf("expected code prefix %q, got %q", wantPrefix, result.DiscountCode)
	}

	var discount models.DiscountCode
	if err := db.Where("code = ?", result.DiscountCode).First(&discount).Error; err != nil {
		t.Fatalf("load minted discount failed: %v", err)
	}
	if discount.Type != constants.DiscountTypePercentage {
		t.Fatalf("expected percentage discount, got %s", discount.Type)
	}
	if discount.MaxUses != 1 {
		t.Fatalf("expected single use code, got max_uses %d", discount.MaxUses)
	}
	wantExpiry := now.Add(7 * 24 * time.Hour)
	if discount.ExpiresAt == nil || !discount.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, discount.ExpiresAt)
	}
}

func TestSendReminderRejections(t *testing.T) {
	db := newRecoveryTestDB(t, "recovery_reminder_reject")
	svc := newTestRecoveryService(db)

	if _, err := svc.SendReminder(99); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected cart not found, got: %v", err)
	}

	noEmail, err := svc.SaveCart(SaveCartInput{SessionID: "sess-1", Items: testCartItems()})
	if err != nil {
		t.Fatalf("SaveCart error: %v", err)
	}
	if _, err := svc.SendReminder(noEmail.ID); !errors.Is(err, ErrCartEmailMissing) {
		t.Fatalf("expected email missing, got: %v", err)
	}

	recovered, err := svc.SaveCart(SaveCartInput{SessionID: "sess-2", Email: "ada@example.com", Items: testCartItems()})
	if err != nil {
		t.Fatalf("SaveCart error: %v", err)
	}
	if _, err := svc.MarkRecovered(recovered.ID); err != nil {
		t.Fatalf("MarkRecovered error: %v", err)
	}
	if _, err := svc.SendReminder(recovered.ID); !errors.Is(err, ErrCartRecovered) {
		t.Fatalf("expected cart recovered, got: %v", err)
	}
}

func TestMarkRecoveredIsTerminalAndIdempotent(t *testing.T) {
	db := newRecoveryTestDB(t, "recovery_mark")
	svc := newTestRecoveryService(db)

	cart, err := svc.SaveCart(SaveCartInput{SessionID: "sess-1", Email: "ada@example.com", Items: testCartItems()})
	if err != nil {
		t.Fatalf("SaveCart error: %v", err)
	}

	first, err := svc.MarkRecovered(cart.ID)
	if err != nil {
		t.Fatalf("MarkRecovered error: %v", err)
	}
	if !first.Recovered {
		t.Fatalf("expected recovered flag set")
	}
	second, err := svc.MarkRecovered(cart.ID)
	if err != nil {
		t.Fatalf("repeat MarkRecovered error: %v", err)
	}
	if !second.Recovered {
		t.Fatalf("expected recovered flag to stay set")
	}

	// 挽回后的会话保存会新建快照而不是复用终态记录
	fresh, err := svc.SaveCart(SaveCartInput{SessionID: "sess-1", Items: testCartItems()})
	if err != nil {
		t.Fatalf("SaveCart after recover error: %v", err)
	}
	if fresh.ID == cart.ID {
		t.Fatalf("expected new cart row after recovery")
	}
}

func TestMarkRecoveredBySession(t *testing.T) {
	db := newRecoveryTestDB(t, "recovery_by_session")
	svc := newTestRecoveryService(db)

	cart, err := svc.SaveCart(SaveCartInput{SessionID: "sess-1", Items: testCartItems()})
	if err != nil {
		t.Fatalf("SaveCart error: %v", err)
	}
	if err := svc.MarkRecoveredBySession("sess-1"); err != nil {
		t.Fatalf("MarkRecoveredBySession error: %v", err)
	}

	var reloaded models.AbandonedCart
	if err := db.First(&reloaded, cart.ID).Error; err != nil {
		t.Fatalf("load cart failed: %v", err)
	}
	if !reloaded.Recovered {
		t.Fatalf("expected cart recovered")
	}

	if err := svc.MarkRecoveredBySession("missing"); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected cart not found, got: %v", err)
	}
}
