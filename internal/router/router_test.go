package router

import (
	"testing"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/provider"

	"github.com/gin-gonic/gin"
)

func TestSetupRouterRegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.Mode = "debug"

	r := SetupRouter(cfg, &provider.Container{})

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"POST /api/v1/checkout",
		"POST /api/v1/payments/webhook/stripe",
		"GET /api/v1/orders/track",
		"POST /api/v1/discounts/validate",
		"POST /api/v1/cart",
		"POST /api/v1/admin/login",
		"PATCH /api/v1/admin/orders/:id/status",
		"PUT /api/v1/admin/orders/:id/tracking",
		"POST /api/v1/admin/abandoned-carts/:id/remind",
		"PUT /api/v1/admin/abandoned-carts/:id/recover",
		"DELETE /api/v1/admin/abandoned-carts/:id",
	}
	for _, key := range want {
		if !registered[key] {
			t.Fatalf("expected route %s registered", key)
		}
	}
}
