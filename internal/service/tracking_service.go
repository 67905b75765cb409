package service

import (
	"time"

	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/models"
)

// TrackingService 物流追踪服务
type TrackingService struct{}

// NewTrackingService 创建物流追踪服务
func NewTrackingService() *TrackingService {
	return &TrackingService{}
}

// TrackingStep 追踪时间线上的一步。已完成步骤携带订单更新时间作为完成时间。
type TrackingStep struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Completed   bool       `json:"completed"`
	Current     bool       `json:"current"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TrackingTimeline 订单追踪时间线
type TrackingTimeline struct {
	OrderNo        string         `json:"order_no"`
	Status         string         `json:"status"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	Steps          []TrackingStep `json:"steps"`
}

// trackingFlow 正常履约的五步流水线
var trackingFlow = []struct {
	key   string
	label string
}{
	{constants.TrackingStepReceived, "Order Received"},
	{constants.TrackingStepPaid, "Payment Confirmed"},
	{constants.TrackingStepPreparing, "Preparing Shipment"},
	{constants.TrackingStepShipped, "Shipped"},
	{constants.TrackingStepDelivered, "Delivered"},
}

// statusStepCount 订单状态对应的已完成步数
var statusStepCount = map[string]int{
	constants.OrderStatusPending:    1,
	constants.OrderStatusPaid:       2,
	constants.OrderStatusProcessing: 3,
	constants.OrderStatusShipped:    4,
	constants.OrderStatusDelivered:  5,
}

// Project 由订单状态推导追踪时间线。
// 取消单只保留前两步并以取消步收尾，不展示后续履约步骤。
func (s *TrackingService) Project(order *models.Order) *TrackingTimeline {
	timeline := &TrackingTimeline{
		OrderNo:        order.OrderNo,
		Status:         order.Status,
		TrackingNumber: order.TrackingNumber,
	}
	completedAt := order.UpdatedAt

	if order.Status == constants.OrderStatusCancelled {
		paidSteps := 1
		if order.PaidAt != nil {
			paidSteps = 2
		}
		for i := 0; i < 2; i++ {
			step := TrackingStep{
				Key:       trackingFlow[i].key,
				Label:     trackingFlow[i].label,
				Completed: i < paidSteps,
			}
			if step.Completed {
				step.CompletedAt = &completedAt
			}
			timeline.Steps = append(timeline.Steps, step)
		}
		timeline.Steps = append(timeline.Steps, TrackingStep{
			Key:         constants.TrackingStepCancelled,
			Label:       "Cancelled",
			Completed:   true,
			Current:     true,
			CompletedAt: &completedAt,
		})
		return timeline
	}

	completed := statusStepCount[order.Status]
	for i, step := range trackingFlow {
		entry := TrackingStep{
			Key:       step.key,
			Label:     step.label,
			Completed: i < completed,
			Current:   i == completed-1,
		}
		if entry.Completed {
			entry.CompletedAt = &completedAt
		}
		timeline.Steps = append(timeline.Steps, entry)
	}
	return timeline
}
