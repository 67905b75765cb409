package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/provider"
	"github.com/bottega-next/internal/queue"
	"github.com/bottega-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskCartReminderEmail, c.handleCartReminderEmail)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	receiverEmail := strings.TrimSpace(order.CustomerEmail)
	if receiverEmail == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	if c.EmailService == nil {
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	input := service.OrderStatusEmailInput{
		OrderNo:  order.OrderNo,
		Status:   status,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	}
	if err := c.EmailService.SendOrderStatusEmail(receiverEmail, input); err != nil {
		if isEmailUnavailable(err) {
			logger.Debugw("worker_order_status_email_skip_disabled", "order_id", order.ID)
			return nil
		}
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"receiver_email", receiverEmail,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleCartReminderEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.CartReminderEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_reminder_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.CartID == 0 {
		return nil
	}
	cart, err := c.AbandonedCartRepo.GetByID(payload.CartID)
	if err != nil {
		logger.Warnw("worker_cart_reminder_email_fetch_cart_failed", "cart_id", payload.CartID, "error", err)
		return err
	}
	if cart == nil {
		logger.Debugw("worker_cart_reminder_email_skip_cart_not_found", "cart_id", payload.CartID)
		return nil
	}
	receiverEmail := strings.TrimSpace(cart.Email)
	if receiverEmail == "" || cart.Recovered {
		logger.Debugw("worker_cart_reminder_email_skip",
			"cart_id", cart.ID,
			"has_email", receiverEmail != "",
			"recovered", cart.Recovered,
		)
		return nil
	}
	if c.EmailService == nil {
		return nil
	}
	input := service.CartReminderEmailInput{
		ItemCount:    len(cart.Items),
		DiscountCode: payload.DiscountCode,
	}
	if err := c.EmailService.SendCartReminderEmail(receiverEmail, input); err != nil {
		if isEmailUnavailable(err) {
			logger.Debugw("worker_cart_reminder_email_skip_disabled", "cart_id", cart.ID)
			return nil
		}
		logger.Warnw("worker_cart_reminder_email_send_failed",
			"cart_id", cart.ID,
			"receiver_email", receiverEmail,
			"error", err,
		)
		return err
	}
	return nil
}

// isEmailUnavailable 邮件服务未启用或未配置不算任务失败，避免无意义重试。
func isEmailUnavailable(err error) bool {
	return errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured)
}
