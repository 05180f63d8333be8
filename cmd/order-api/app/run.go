package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/karenkamal24/softigitalshop/configs"
	"github.com/karenkamal24/softigitalshop/internal/adapter/cache"
	httpadapter "github.com/karenkamal24/softigitalshop/internal/adapter/http"
	"github.com/karenkamal24/softigitalshop/internal/adapter/http/middleware"
	"github.com/karenkamal24/softigitalshop/internal/adapter/kafka"
	"github.com/karenkamal24/softigitalshop/internal/adapter/queue"
	"github.com/karenkamal24/softigitalshop/internal/adapter/repo"
	"github.com/karenkamal24/softigitalshop/internal/fulfillment"
	"github.com/karenkamal24/softigitalshop/internal/logging"
	"github.com/karenkamal24/softigitalshop/internal/payment"
	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

const (
	outboxRelayInterval = 5 * time.Second
	archiveInterval     = 24 * time.Hour
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile)

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, nil, err
	}

	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	// infra
	store := repo.NewMySQLStore(db)
	orderRepo := repo.NewMySQLOrderRepo(db)
	userRepo := repo.NewMySQLUserRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	statusCache := cache.NewRedisCache(rdb, cfg.Orders.StatusCacheTTL)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Orders.IdempotencyTTL)
	limiter := cache.NewRedisRateLimiter(rdb, cfg.Orders.RateLimitPerMinute, time.Minute)

	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	events, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, logging.New("kafka"))
	if err != nil {
		return nil, nil, err
	}

	gateway, err := payment.BuildRegistry(cfg, logging.New("payment")).Default()
	if err != nil {
		return nil, nil, err
	}

	// use cases
	placeUC := usecase.NewPlaceOrder(store, orderRepo, userRepo, gateway, idem, logging.New("place-order"))
	reconcileUC := usecase.NewReconcileWebhook(orderRepo, statusCache, events, logging.New("webhook"))
	updateUC := usecase.NewUpdateOrderStatus(orderRepo, statusCache, events, logging.New("admin"))
	archiveUC := usecase.NewArchiveOldOrders(orderRepo, cfg.Orders.ArchiveAfter, logging.New("archive"))
	relay := usecase.NewOutboxRelay(outboxRepo, producer, outboxRelayInterval, logging.New("outbox-relay"))

	// background workers
	bg, stopBg := context.WithCancel(context.Background())
	go relay.Run(bg)
	go runArchiver(bg, archiveUC)
	if err := setupQueue(ch, cfg, producer); err != nil {
		stopBg()
		return nil, nil, err
	}
	logger.Info("order-api wired", "gateway", gateway.Name())

	// handlers + router
	orders := httpadapter.NewOrderHandler(placeUC, orderRepo, statusCache)
	admin := httpadapter.NewAdminHandler(updateUC)
	webhook := httpadapter.NewWebhookHandler(reconcileUC, cfg.Payment.Paymob.HMACSecret)
	token := httpadapter.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(orders, admin, webhook, token, authz, limiter)

	cleanup := func() {
		stopBg()
		_ = events.Close()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupQueue(ch *amqp.Channel, cfg configs.Config, producer *queue.RabbitProducer) error {
	notifier := fulfillment.NewClient(cfg.Fulfillment.BaseURL, cfg.Fulfillment.APIKey)
	h := queue.NewFulfillmentHandler(notifier, producer, logging.New("fulfillment"))

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(queue.FulfillmentQueue, h)

	return router.Start()
}

func runArchiver(ctx context.Context, uc *usecase.ArchiveOldOrders) {
	ticker := time.NewTicker(archiveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := uc.Execute(ctx); err != nil {
				logging.New("archive").Error("archival pass failed", "err", err)
			}
		}
	}
}
