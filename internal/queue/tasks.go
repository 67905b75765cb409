package queue

import (
	"encoding/json"

	"github.com/bottega-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskCartReminderEmail 购物车挽回邮件任务
	TaskCartReminderEmail = constants.TaskCartReminderEmail
)

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// CartReminderEmailPayload 购物车挽回邮件任务载荷
type CartReminderEmailPayload struct {
	CartID       uint   `json:"cart_id"`
	DiscountCode string `json:"discount_code"`
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewCartReminderEmailTask 创建购物车挽回邮件任务
func NewCartReminderEmailTask(payload CartReminderEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartReminderEmail, body), nil
}
