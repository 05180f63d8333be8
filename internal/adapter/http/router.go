package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/karenkamal24/softigitalshop/internal/adapter/http/middleware"
	"github.com/karenkamal24/softigitalshop/internal/logging"
)

func NewRouter(
	orders *OrderHandler,
	admin *AdminHandler,
	webhook *WebhookHandler,
	token *TokenHandler,
	authz *middleware.Authz,
	limiter middleware.Limiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", token.IssueToken)

	v1 := r.Group("/v1")
	{
		v1.POST("/orders",
			authz.Require("orders.write"), middleware.RateLimit(limiter), orders.PlaceOrder)
		v1.GET("/orders", authz.Require("orders.read"), orders.ListOrders)
		v1.GET("/orders/:id", authz.Require("orders.read"), orders.GetOrderByID)
		v1.GET("/orders/:id/status", authz.Require("orders.read"), orders.GetOrderStatus)

		v1.PATCH("/admin/orders/:id/status", authz.Require("orders.admin"), admin.UpdateStatus)

		// provider callbacks authenticate with an HMAC signature, not a JWT
		v1.POST("/payment/webhook", webhook.HandleCallback)
		v1.GET("/payment/response", webhook.HandleResponse)
	}

	return r
}
