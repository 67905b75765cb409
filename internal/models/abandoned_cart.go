package models

import (
	"time"

	"gorm.io/gorm"
)

// AbandonedCart 未结账购物车快照
type AbandonedCart struct {
	ID           uint           `gorm:"primarykey" json:"id"`                      // 主键
	SessionID    string         `gorm:"index;not null" json:"session_id"`          // 会话ID
	Email        string         `gorm:"index" json:"email,omitempty"`              // 买家邮箱（可空）
	Items        CartItemList   `gorm:"type:text;not null" json:"items"`           // 条目快照（JSON）
	ReminderSent bool           `gorm:"not null;default:false" json:"reminder_sent"` // 是否已发送提醒
	Recovered    bool           `gorm:"not null;default:false" json:"recovered"`   // 是否已挽回（终态）
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (AbandonedCart) TableName() string {
	return "abandoned_carts"
}
