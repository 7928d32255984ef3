package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kimsangheu/stdpay-gateway/internal/api"
	"github.com/kimsangheu/stdpay-gateway/internal/checkout"
	"github.com/kimsangheu/stdpay-gateway/internal/config"
	"github.com/kimsangheu/stdpay-gateway/internal/events"
	"github.com/kimsangheu/stdpay-gateway/internal/handlers"
	"github.com/kimsangheu/stdpay-gateway/internal/orchestrator"
	"github.com/kimsangheu/stdpay-gateway/internal/registry"
	"github.com/kimsangheu/stdpay-gateway/internal/telemetry"
)

func main() {
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry("stdpay-gateway"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting stdpay gateway",
		zap.String("mid", cfg.Mid),
		zap.String("pg_mode", cfg.PGMode),
	)

	// Connect to Redis (optional, callback idempotency)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
	}

	// Connect to NATS (optional, ops alerts)
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, nc)
	defer publisher.Close()

	reg := registry.New(registry.Mode(cfg.PGMode))
	builder := checkout.NewBuilder(cfg.Mid, cfg.SignKey, time.Now)
	orch := orchestrator.New(orchestrator.Config{
		Mid:      cfg.Mid,
		SignKey:  cfg.SignKey,
		Registry: reg,
		Timeout:  cfg.ApprovalTimeout,
		Events:   publisher,
	})
	paymentHandler := handlers.NewPaymentHandler(builder, orch, reg.WidgetScriptURL(), cfg.BaseURL)

	r := api.NewRouter(paymentHandler, redisClient)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Gateway starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
