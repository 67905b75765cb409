package models

import "time"

// DiscountRedemption 优惠码核销记录
// (discount_id, order_id) 唯一，作为核销幂等键：同一订单重复确认不会二次累计 used_count。
type DiscountRedemption struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                           // 主键
	DiscountID uint      `gorm:"not null;uniqueIndex:idx_redemption_order" json:"discount_id"`   // 优惠码ID
	OrderID    uint      `gorm:"not null;uniqueIndex:idx_redemption_order" json:"order_id"`      // 订单ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
}

// TableName 指定表名
func (DiscountRedemption) TableName() string {
	return "discount_redemptions"
}
