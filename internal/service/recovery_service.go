package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/queue"
	"github.com/bottega-next/internal/repository"
)

// RecoveryService 购物车挽回服务
type RecoveryService struct {
	cartRepo        repository.AbandonedCartRepository
	discountService *DiscountService
	queueClient     *queue.Client
	cfg             config.RecoveryConfig
	now             func() time.Time
}

// NewRecoveryService 创建购物车挽回服务
func NewRecoveryService(cartRepo repository.AbandonedCartRepository, discountService *DiscountService, queueClient *queue.Client, cfg config.RecoveryConfig) *RecoveryService {
	return &RecoveryService{
		cartRepo:        cartRepo,
		discountService: discountService,
		queueClient:     queueClient,
		cfg:             cfg,
		now:             time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (s *RecoveryService) WithClock(now func() time.Time) *RecoveryService {
	if now != nil {
		s.now = now
	}
	return s
}

// SaveCartInput 保存购物车快照输入
type SaveCartInput struct {
	SessionID string
	Email     string
	Items     []models.CartItemSnapshot
}

// SaveCart 保存会话的购物车快照。同一会话的未挽回快照做覆盖更新，
// 不会为一个会话堆出多条活跃记录。
func (s *RecoveryService) SaveCart(input SaveCartInput) (*models.AbandonedCart, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, ErrCartNotFound
	}
	if len(input.Items) == 0 {
		return nil, ErrCartEmpty
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	cart, err := s.cartRepo.GetActiveBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.AbandonedCart{
			SessionID: sessionID,
			Email:     email,
			Items:     models.CartItemList(input.Items),
		}
		if err := s.cartRepo.Create(cart); err != nil {
			return nil, err
		}
		logger.Infow("abandoned_cart_saved", "cart_id", cart.ID, "session_id", sessionID, "item_count", len(input.Items))
		return cart, nil
	}

	cart.Items = models.CartItemList(input.Items)
	if email != "" {
		cart.Email = email
	}
	if err := s.cartRepo.Update(cart); err != nil {
		return nil, err
	}
	logger.Infow("abandoned_cart_updated", "cart_id", cart.ID, "session_id", sessionID, "item_count", len(input.Items))
	return cart, nil
}

// ReminderResult 提醒发送结果
type ReminderResult struct {
	Cart         *models.AbandonedCart `json:"cart"`
	DiscountCode string                `json:"discount_code"`
}

// SendReminder 发送挽回提醒：铸造一张限时单次的专属折扣码并投递邮件任务。
// 重复发送允许（码会换新），但会记录告警便于排查滥用。
func (s *RecoveryService) SendReminder(cartID uint) (*ReminderResult, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	if cart.Recovered {
		return nil, ErrCartRecovered
	}
	if strings.TrimSpace(cart.Email) == "" {
		return nil, ErrCartEmailMissing
	}
	if cart.ReminderSent {
		logger.Warnw("cart_reminder_resend", "cart_id", cart.ID, "email", cart.Email)
	}

	code, err := s.mintRecoveryCode(cart)
	if err != nil {
		return nil, err
	}

	cart.ReminderSent = true
	if err := s.cartRepo.Update(cart); err != nil {
		return nil, err
	}

	if s.queueClient != nil {
		err := s.queueClient.EnqueueCartReminderEmail(queue.CartReminderEmailPayload{
			CartID:       cart.ID,
			DiscountCode: code,
		})
		if err != nil {
			logger.Warnw("cart_reminder_enqueue_failed", "cart_id", cart.ID, "error", err)
		}
	}

	logger.Infow("cart_reminder_sent",
		"cart_id", cart.ID,
		"email", cart.Email,
		"discount_code", code,
	)
	return &ReminderResult{Cart: cart, DiscountCode: code}, nil
}

// mintRecoveryCode 铸造挽回折扣码：百分比折扣、单次使用、限时失效，
// 码内嵌购物车标识便于归因。
func (s *RecoveryService) mintRecoveryCode(cart *models.AbandonedCart) (string, error) {
	expiresAt := s.now().Add(time.Duration(s.cfg.DiscountExpireDays) * 24 * time.Hour)
	code := fmt.Sprintf("BACK%d-%s", cart.ID, randNumeric(4))

	discount := &models.DiscountCode{
		Code:      code,
		Type:      constants.DiscountTypePercentage,
		Value:     models.NewMoneyFromFloat(s.cfg.DiscountPercent),
		MaxUses:   1,
		IsActive:  true,
		ExpiresAt: &expiresAt,
	}
	if err := s.discountService.Create(discount); err != nil {
		return "", err
	}
	return discount.Code, nil
}

// MarkRecovered 标记购物车已挽回（终态）
func (s *RecoveryService) MarkRecovered(cartID uint) (*models.AbandonedCart, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	if cart.Recovered {
		return cart, nil
	}
	cart.Recovered = true
	if err := s.cartRepo.Update(cart); err != nil {
		return nil, err
	}
	logger.Infow("abandoned_cart_recovered", "cart_id", cart.ID, "session_id", cart.SessionID)
	return cart, nil
}

// MarkRecoveredBySession 按会话标记挽回（结账完成后调用）
func (s *RecoveryService) MarkRecoveredBySession(sessionID string) error {
	cart, err := s.cartRepo.GetActiveBySession(strings.TrimSpace(sessionID))
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartNotFound
	}
	_, err = s.MarkRecovered(cart.ID)
	return err
}

// ListCarts 购物车列表与统计（管理端）
func (s *RecoveryService) ListCarts(filter repository.AbandonedCartListFilter) ([]models.AbandonedCart, int64, *repository.AbandonedCartStats, error) {
	carts, total, err := s.cartRepo.List(filter)
	if err != nil {
		return nil, 0, nil, err
	}
	stats, err := s.cartRepo.Stats()
	if err != nil {
		return nil, 0, nil, err
	}
	return carts, total, stats, nil
}

// DeleteCart 删除购物车快照（管理端）
func (s *RecoveryService) DeleteCart(id uint) error {
	cart, err := s.cartRepo.GetByID(id)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartNotFound
	}
	return s.cartRepo.Delete(id)
}
