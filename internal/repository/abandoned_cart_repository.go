package repository

import (
	"errors"

	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/models"

	"gorm.io/gorm"
)

// AbandonedCartStats 未结账购物车统计
type AbandonedCartStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Reminded  int64 `json:"reminded"`
	Recovered int64 `json:"recovered"`
}

// AbandonedCartRepository 未结账购物车数据访问接口
type AbandonedCartRepository interface {
	GetByID(id uint) (*models.AbandonedCart, error)
	GetActiveBySession(sessionID string) (*models.AbandonedCart, error)
	Create(cart *models.AbandonedCart) error
	Update(cart *models.AbandonedCart) error
	Delete(id uint) error
	List(filter AbandonedCartListFilter) ([]models.AbandonedCart, int64, error)
	Stats() (*AbandonedCartStats, error)
	WithTx(tx *gorm.DB) *GormAbandonedCartRepository
}

// GormAbandonedCartRepository GORM 实现
type GormAbandonedCartRepository struct {
	db *gorm.DB
}

// NewAbandonedCartRepository 创建未结账购物车仓库
func NewAbandonedCartRepository(db *gorm.DB) *GormAbandonedCartRepository {
	return &GormAbandonedCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAbandonedCartRepository) WithTx(tx *gorm.DB) *GormAbandonedCartRepository {
	if tx == nil {
		return r
	}
	return &GormAbandonedCartRepository{db: tx}
}

// GetByID 根据ID获取购物车
func (r *GormAbandonedCartRepository) GetByID(id uint) (*models.AbandonedCart, error) {
	var cart models.AbandonedCart
	if err := r.db.First(&cart, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetActiveBySession 根据会话获取未挽回的购物车
func (r *GormAbandonedCartRepository) GetActiveBySession(sessionID string) (*models.AbandonedCart, error) {
	var cart models.AbandonedCart
	err := r.db.Where("session_id = ? AND recovered = ?", sessionID, false).
		Order("id desc").
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create 创建购物车快照
func (r *GormAbandonedCartRepository) Create(cart *models.AbandonedCart) error {
	return r.db.Create(cart).Error
}

// Update 更新购物车快照
func (r *GormAbandonedCartRepository) Update(cart *models.AbandonedCart) error {
	return r.db.Save(cart).Error
}

// Delete 删除购物车快照
func (r *GormAbandonedCartRepository) Delete(id uint) error {
	return r.db.Delete(&models.AbandonedCart{}, id).Error
}

// List 获取购物车列表
func (r *GormAbandonedCartRepository) List(filter AbandonedCartListFilter) ([]models.AbandonedCart, int64, error) {
	var carts []models.AbandonedCart
	query := r.db.Model(&models.AbandonedCart{})

	switch filter.Filter {
	case constants.CartFilterPending:
		query = query.Where("reminder_sent = ? AND recovered = ?", false, false)
	case constants.CartFilterReminded:
		query = query.Where("reminder_sent = ? AND recovered = ?", true, false)
	case constants.CartFilterRecovered:
		query = query.Where("recovered = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&carts).Error; err != nil {
		return nil, 0, err
	}
	return carts, total, nil
}

// Stats 统计各状态购物车数量
func (r *GormAbandonedCartRepository) Stats() (*AbandonedCartStats, error) {
	stats := &AbandonedCartStats{}
	base := r.db.Model(&models.AbandonedCart{})

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("reminder_sent = ? AND recovered = ?", false, false).
		Count(&stats.Pending).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("reminder_sent = ? AND recovered = ?", true, false).
		Count(&stats.Reminded).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("recovered = ?", true).
		Count(&stats.Recovered).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
