package provider

import (
	"time"

	"github.com/bottega-next/internal/cache"
	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/payment"
	"github.com/bottega-next/internal/payment/paypal"
	"github.com/bottega-next/internal/payment/stripe"
	"github.com/bottega-next/internal/payment/testpay"
	"github.com/bottega-next/internal/queue"
	"github.com/bottega-next/internal/repository"
	"github.com/bottega-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	OrderRepo         repository.OrderRepository
	ProductRepo       repository.ProductRepository
	DiscountRepo      repository.DiscountRepository
	AbandonedCartRepo repository.AbandonedCartRepository

	// Payment
	PaymentRegistry *payment.Registry
	StripeClient    *stripe.Client

	// Services
	AuthService     *service.AuthService
	EmailService    *service.EmailService
	ProductService  *service.ProductService
	DiscountService *service.DiscountService
	TrackingService *service.TrackingService
	OrderService    *service.OrderService
	RecoveryService *service.RecoveryService
	CheckoutService *service.CheckoutService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initPayments()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
	c.AbandonedCartRepo = repository.NewAbandonedCartRepository(db)
}

func (c *Container) initPayments() {
	c.StripeClient = stripe.New(c.Config.Payment.Stripe)
	c.PaymentRegistry = payment.NewRegistry(
		testpay.New(),
		c.StripeClient,
		paypal.New(c.Config.Payment.Paypal),
	)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.AuthService = service.NewAuthService(cfg, c.AdminRepo)
	c.EmailService = service.NewEmailService(&cfg.Email)

	listCache := cache.NewTTLCache(time.Duration(cfg.Shop.RatesCacheTTLSeconds) * time.Second)
	c.ProductService = service.NewProductService(c.ProductRepo, listCache)

	c.DiscountService = service.NewDiscountService(c.DiscountRepo)
	c.TrackingService = service.NewTrackingService()
	c.OrderService = service.NewOrderService(models.DB, c.OrderRepo, c.ProductRepo, c.DiscountService, c.QueueClient, cfg.Shop)
	c.RecoveryService = service.NewRecoveryService(c.AbandonedCartRepo, c.DiscountService, c.QueueClient, cfg.Recovery)
	c.CheckoutService = service.NewCheckoutService(c.OrderService, c.RecoveryService, c.PaymentRegistry, cfg.Payment)
}
