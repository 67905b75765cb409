package router

import (
	"fmt"
	"strings"

	"github.com/bottega-next/internal/cache"
	"github.com/bottega-next/internal/config"
	adminhandlers "github.com/bottega-next/internal/http/handlers/admin"
	publichandlers "github.com/bottega-next/internal/http/handlers/public"
	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bt"
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	api := r.Group("/api/v1")
	{
		// 公开接口
		api.GET("/products", publicHandler.ListProducts)
		api.POST("/checkout", publicHandler.Checkout)
		api.GET("/orders/track", publicHandler.TrackOrder)
		api.POST("/discounts/validate", publicHandler.ValidateDiscount)
		api.POST("/cart", publicHandler.SaveCart)

		// 支付回调
		api.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)

		// 管理员接口
		admin := api.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
				authorized.PUT("/orders/:id/tracking", adminHandler.SetOrderTracking)

				// 商品管理
				authorized.GET("/products", adminHandler.ListProducts)
				authorized.GET("/products/:id", adminHandler.GetProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

				// 优惠码管理
				authorized.GET("/discounts", adminHandler.ListDiscounts)
				authorized.POST("/discounts", adminHandler.CreateDiscount)
				authorized.PUT("/discounts/:id", adminHandler.UpdateDiscount)
				authorized.DELETE("/discounts/:id", adminHandler.DeleteDiscount)

				// 弃单挽回
				authorized.GET("/abandoned-carts", adminHandler.ListAbandonedCarts)
				authorized.POST("/abandoned-carts/:id/remind", adminHandler.RemindAbandonedCart)
				authorized.PUT("/abandoned-carts/:id/recover", adminHandler.RecoverAbandonedCart)
				authorized.DELETE("/abandoned-carts/:id", adminHandler.DeleteAbandonedCart)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
