package repository

import (
	"errors"
	"strings"

	"github.com/bottega-next/internal/models"

	"gorm.io/gorm"
)

// DiscountRepository 优惠码数据访问接口
type DiscountRepository interface {
	GetByID(id uint) (*models.DiscountCode, error)
	GetByCode(code string) (*models.DiscountCode, error)
	Create(discount *models.DiscountCode) error
	Update(discount *models.DiscountCode) error
	Delete(id uint) error
	List(filter DiscountListFilter) ([]models.DiscountCode, int64, error)
	HasRedemption(discountID, orderID uint) (bool, error)
	CreateRedemption(redemption *models.DiscountRedemption) error
	IncrementUsedCount(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormDiscountRepository
}

// GormDiscountRepository GORM 实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建优惠码仓库
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) *GormDiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// GetByID 根据ID获取优惠码
func (r *GormDiscountRepository) GetByID(id uint) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	if err := r.db.First(&discount, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// GetByCode 根据优惠码获取记录（码值不区分大小写）
func (r *GormDiscountRepository) GetByCode(code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	err := r.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// Create 创建优惠码
func (r *GormDiscountRepository) Create(discount *models.DiscountCode) error {
	discount.Code = strings.ToUpper(strings.TrimSpace(discount.Code))
	return r.db.Create(discount).Error
}

// Update 更新优惠码
func (r *GormDiscountRepository) Update(discount *models.DiscountCode) error {
	discount.Code = strings.ToUpper(strings.TrimSpace(discount.Code))
	return r.db.Save(discount).Error
}

// Delete 删除优惠码
func (r *GormDiscountRepository) Delete(id uint) error {
	return r.db.Delete(&models.DiscountCode{}, id).Error
}

// List 获取优惠码列表
func (r *GormDiscountRepository) List(filter DiscountListFilter) ([]models.DiscountCode, int64, error) {
	var discounts []models.DiscountCode
	query := r.db.Model(&models.DiscountCode{})

	if filter.Code != "" {
		query = query.Where("code LIKE ?", "%"+strings.ToUpper(filter.Code)+"%")
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&discounts).Error; err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

// HasRedemption 判断优惠码在指定订单上是否已核销
func (r *GormDiscountRepository) HasRedemption(discountID, orderID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.DiscountRedemption{}).
		Where("discount_id = ? AND order_id = ?", discountID, orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateRedemption 写入核销记录，唯一索引兜底并发重复
func (r *GormDiscountRepository) CreateRedemption(redemption *models.DiscountRedemption) error {
	return r.db.Create(redemption).Error
}

// IncrementUsedCount 累计使用次数，带上限保护。返回是否累计成功。
func (r *GormDiscountRepository) IncrementUsedCount(id uint) (bool, error) {
	result := r.db.Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Where("max_uses = 0 OR used_count < max_uses").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
