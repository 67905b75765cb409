package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCode 优惠码
type DiscountCode struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Code        string         `gorm:"uniqueIndex;not null" json:"code"`                          // 优惠码（统一大写存储）
	Type        string         `gorm:"not null" json:"type"`                                      // 类型（percentage/fixed）
	Value       Money          `gorm:"type:decimal(20,2);not null" json:"value"`                  // 数值（百分比或固定金额）
	MinPurchase Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_purchase"` // 使用门槛
	MaxUses     int            `gorm:"not null;default:0" json:"max_uses"`                        // 总使用上限（0 表示不限制）
	UsedCount   int            `gorm:"not null;default:0" json:"used_count"`                      // 已使用次数
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`                    // 是否启用
	ExpiresAt   *time.Time     `gorm:"index" json:"expires_at"`                                   // 失效时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (DiscountCode) TableName() string {
	return "discount_codes"
}
