package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	CustomerName    string         `gorm:"type:varchar(120);not null" json:"customer_name"`           // 买家姓名快照
	CustomerEmail   string         `gorm:"index;not null" json:"customer_email"`                      // 买家邮箱快照
	Status          string         `gorm:"index;not null" json:"status"`                              // 订单状态
	Currency        string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额（含运费，下单时固定）
	ShippingFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // 运费
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`                         // 收货地址快照（扁平字符串）
	TrackingNumber  string         `gorm:"type:varchar(120)" json:"tracking_number,omitempty"`        // 物流单号
	DiscountID      *uint          `gorm:"index" json:"discount_id,omitempty"`                        // 优惠码ID
	PaymentProvider string         `gorm:"type:varchar(20)" json:"payment_provider,omitempty"`        // 支付提供方
	PaymentRef      string         `gorm:"index" json:"payment_ref,omitempty"`                        // 外部支付引用
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
