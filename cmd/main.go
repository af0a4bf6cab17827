package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xdnjs7/snack-order-service/internal/approval"
	"github.com/xdnjs7/snack-order-service/internal/budget"
	"github.com/xdnjs7/snack-order-service/internal/cart"
	"github.com/xdnjs7/snack-order-service/internal/checkout"
	"github.com/xdnjs7/snack-order-service/internal/config"
	"github.com/xdnjs7/snack-order-service/internal/db"
	"github.com/xdnjs7/snack-order-service/internal/events"
	"github.com/xdnjs7/snack-order-service/internal/httpapi"
	"github.com/xdnjs7/snack-order-service/internal/lock"
	"github.com/xdnjs7/snack-order-service/internal/order"
	"github.com/xdnjs7/snack-order-service/internal/payment"
)

func main() {
	logger := log.New(os.Stdout, "[snack-order] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	pool, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer pool.Close()

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatalf("ping redis: %v", err)
	}
	defer redisClient.Close()

	// RabbitMQ
	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("create publisher: %v", err)
	}
	defer publisher.Close()

	// Wiring
	orderRepo := order.NewPostgresRepository(pool)
	cartRepo := cart.NewPostgresRepository(pool)
	ledger := budget.NewLedger(pool)

	orderService := order.NewService(orderRepo, cartRepo, ledger, publisher, cfg.DeliveryFee, logger)
	workflow := approval.NewWorkflow(orderRepo, ledger, publisher, logger)

	sessions := payment.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	locks := lock.NewRedisLocker(redisClient, "")
	vendor := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, cfg.ConfirmTimeout)
	confirmer := payment.NewConfirmer(vendor, orderService, workflow, sessions, locks, cfg.ConfirmLockTTL, logger)

	guard := checkout.NewGuard(checkout.RemoteNavigator{}, sessions, orderService, logger)

	handler := httpapi.NewHandler(orderService, workflow, ledger, cartRepo, confirmer, guard, sessions, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpapi.NewRouter(handler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("snack-order-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
}
