package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 优惠码类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 支付提供方常量
const (
	PaymentProviderTest   = "test"
	PaymentProviderStripe = "stripe"
	PaymentProviderPaypal = "paypal"
)

// 挽回购物车筛选常量
const (
	CartFilterAll       = "all"
	CartFilterPending   = "pending"
	CartFilterReminded  = "reminded"
	CartFilterRecovered = "recovered"
)

// 物流追踪步骤常量
const (
	TrackingStepReceived  = "received"
	TrackingStepPaid      = "payment_confirmed"
	TrackingStepPreparing = "preparing"
	TrackingStepShipped   = "shipped"
	TrackingStepDelivered = "delivered"
	TrackingStepCancelled = "cancelled"
)

// 异步任务名称常量
const (
	TaskOrderStatusEmail  = "order:status_email"
	TaskCartReminderEmail = "cart:reminder_email"
)

// 队列名称常量
const (
	QueueDefault = "default"
)
