package repository

import (
	"errors"
	"strings"

	"github.com/bottega-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByOrderNoAndEmail(orderNo, email string) (*models.Order, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatusCAS(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (bool, error)
	SetTrackingNumber(id uint, trackingNumber string) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单编号获取订单（编号不区分大小写）
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		Where("upper(order_no) = ?", strings.ToUpper(strings.TrimSpace(orderNo))).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNoAndEmail 根据订单编号与买家邮箱获取订单（公开查询口径）
func (r *GormOrderRepository) GetByOrderNoAndEmail(orderNo, email string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		Where("upper(order_no) = ?", strings.ToUpper(strings.TrimSpace(orderNo))).
		Where("lower(customer_email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListAdmin 获取管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("upper(order_no) LIKE ?", "%"+strings.ToUpper(filter.OrderNo)+"%")
	}
	if filter.Email != "" {
		query = query.Where("lower(customer_email) LIKE ?", "%"+strings.ToLower(filter.Email)+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatusCAS 条件更新订单状态：仅当当前状态属于 fromStatuses 时写入 toStatus。
// 返回是否真正发生了状态迁移，竞争方以此判定自己是否是唯一赢家。
func (r *GormOrderRepository) UpdateStatusCAS(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus

	result := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Where("status IN ?", fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetTrackingNumber 设置物流单号
func (r *GormOrderRepository) SetTrackingNumber(id uint, trackingNumber string) error {
	return r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Update("tracking_number", trackingNumber).Error
}
