package service

import (
	"strings"
	"time"

	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountService 优惠码服务
type DiscountService struct {
	discountRepo repository.DiscountRepository
	now          func() time.Time
}

// NewDiscountService 创建优惠码服务
func NewDiscountService(discountRepo repository.DiscountRepository) *DiscountService {
	return &DiscountService{
		discountRepo: discountRepo,
		now:          time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (s *DiscountService) WithClock(now func() time.Time) *DiscountService {
	if now != nil {
		s.now = now
	}
	return s
}

// DiscountQuote 优惠码抵扣结果
type DiscountQuote struct {
	Valid          bool         `json:"valid"`
	Code           string       `json:"code"`
	Type           string       `json:"type"`
	DiscountAmount models.Money `json:"discount_amount"`
	FinalTotal     models.Money `json:"final_total"`
}

// Validate 校验优惠码并计算抵扣金额。按固定顺序拒绝：
// 不存在、未启用、已过期、已用尽、未达门槛。
func (s *DiscountService) Validate(code string, subtotal models.Money) (*DiscountQuote, *models.DiscountCode, error) {
	discount, err := s.discountRepo.GetByCode(code)
	if err != nil {
		return nil, nil, err
	}
	if discount == nil {
		return nil, nil, ErrDiscountNotFound
	}
	if !discount.IsActive {
		return nil, nil, ErrDiscountInactive
	}
	if discount.ExpiresAt != nil && !discount.ExpiresAt.After(s.now()) {
		return nil, nil, ErrDiscountExpired
	}
	if discount.MaxUses > 0 && discount.UsedCount >= discount.MaxUses {
		return nil, nil, ErrDiscountExhausted
	}
	if subtotal.Decimal.LessThan(discount.MinPurchase.Decimal) {
		return nil, nil, ErrDiscountMinPurchase
	}

	amount := discountAmountFor(discount, subtotal.Decimal)
	final := subtotal.Decimal.Sub(amount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return &DiscountQuote{
		Valid:          true,
		Code:           discount.Code,
		Type:           discount.Type,
		DiscountAmount: models.NewMoneyFromDecimal(amount),
		FinalTotal:     models.NewMoneyFromDecimal(final),
	}, discount, nil
}

// Consume 按订单核销优惠码，核销键为 (优惠码, 订单)，重复核销为无操作。
func (s *DiscountService) Consume(tx *gorm.DB, discountID, orderID uint) error {
	repo := s.discountRepo.WithTx(tx)

	exists, err := repo.HasRedemption(discountID, orderID)
	if err != nil {
		return err
	}
	if exists {
		logger.Infow("discount_redemption_replay_ignored",
			"discount_id", discountID,
			"order_id", orderID,
		)
		return nil
	}

	if err := repo.CreateRedemption(&models.DiscountRedemption{
		DiscountID: discountID,
		OrderID:    orderID,
	}); err != nil {
		return err
	}

	bumped, err := repo.IncrementUsedCount(discountID)
	if err != nil {
		return err
	}
	if !bumped {
		logger.Warnw("discount_used_count_over_limit",
			"discount_id", discountID,
			"order_id", orderID,
		)
	}

	logger.Infow("discount_redeemed",
		"discount_id", discountID,
		"order_id", orderID,
	)
	return nil
}

// Create 创建优惠码（管理端）
func (s *DiscountService) Create(discount *models.DiscountCode) error {
	discount.Code = strings.ToUpper(strings.TrimSpace(discount.Code))
	if discount.Code == "" || !isValidDiscountType(discount.Type) {
		return ErrDiscountInvalid
	}
	return s.discountRepo.Create(discount)
}

// Update 更新优惠码（管理端）
func (s *DiscountService) Update(discount *models.DiscountCode) error {
	if !isValidDiscountType(discount.Type) {
		return ErrDiscountInvalid
	}
	return s.discountRepo.Update(discount)
}

// Delete 删除优惠码（管理端）
func (s *DiscountService) Delete(id uint) error {
	discount, err := s.discountRepo.GetByID(id)
	if err != nil {
		return err
	}
	if discount == nil {
		return ErrDiscountNotFound
	}
	return s.discountRepo.Delete(id)
}

// List 优惠码列表（管理端）
func (s *DiscountService) List(filter repository.DiscountListFilter) ([]models.DiscountCode, int64, error) {
	return s.discountRepo.List(filter)
}

// discountAmountFor 计算抵扣金额：百分比取小计比例，固定金额封顶到小计。
func discountAmountFor(discount *models.DiscountCode, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch discount.Type {
	case constants.DiscountTypePercentage:
		amount = subtotal.Mul(discount.Value.Decimal).Div(decimal.NewFromInt(100))
	case constants.DiscountTypeFixed:
		amount = discount.Value.Decimal
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(2)
}

func isValidDiscountType(discountType string) bool {
	return discountType == constants.DiscountTypePercentage || discountType == constants.DiscountTypeFixed
}
