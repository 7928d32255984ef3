package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kimsangheu/stdpay-gateway/internal/handlers"
	"github.com/kimsangheu/stdpay-gateway/internal/middleware"
	"github.com/kimsangheu/stdpay-gateway/internal/telemetry"
	"github.com/kimsangheu/stdpay-gateway/web"
)

func NewRouter(paymentHandler *handlers.PaymentHandler, redisClient *redis.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())
	r.SetHTMLTemplate(web.Templates())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "stdpay-gateway"})
	})

	// Payment routes
	r.GET("/", paymentHandler.Index)
	pay := r.Group("/pay")
	{
		pay.POST("", paymentHandler.StartPayment)
		pay.POST("/return", middleware.CallbackIdempotency(redisClient), paymentHandler.Return)
		pay.POST("/close", paymentHandler.Close)
	}

	return r
}
