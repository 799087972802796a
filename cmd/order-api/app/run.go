package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/orderflow/order-api/configs"
	"github.com/orderflow/order-api/internal/adapter/cache"
	"github.com/orderflow/order-api/internal/adapter/http"
	"github.com/orderflow/order-api/internal/adapter/http/middleware"
	"github.com/orderflow/order-api/internal/adapter/queue"
	"github.com/orderflow/order-api/internal/adapter/repo"
	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/logging"
	"github.com/orderflow/order-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

// InitWithConfig wires every dependency explicitly at process start. The
// returned cleanup closes what was opened, in reverse order.
func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile)

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	logger.Info("order-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	accountRepo := repo.NewMySQLAccountRepo(db)
	idemRepo := repo.NewMySQLIdempotencyRepo(db)
	notifRepo := repo.NewMySQLNotificationRepo(db)
	redisCache := cache.NewRedisCache(rdb, cfg.Redis.CacheTTL)

	producer, err := queue.NewRabbitProducer(ch, cfg.Rabbit.Exchange)
	if err != nil {
		return nil, nil, err
	}

	// use cases
	saga := usecase.NewOrderSaga(orderRepo, accountRepo, idemRepo, producer, redisCache,
		cfg.Idempotency.TTL, logging.New("saga"))
	billing := usecase.NewBilling(accountRepo, logging.New("billing"))
	sweeper := usecase.NewRecoverySweeper(orderRepo, accountRepo, producer,
		cfg.Recovery.StaleAfter, logging.New("recovery"))

	// consumer: notifications from our own order events
	if err := setupConsumer(ch, cfg.Rabbit.Exchange, notifRepo); err != nil {
		return nil, nil, err
	}

	// background loops
	bgCtx, bgCancel := context.WithCancel(context.Background())
	go sweeper.Run(bgCtx, cfg.Recovery.Interval)
	go reapIdempotency(bgCtx, idemRepo, cfg.Idempotency.ReapInterval)

	// handlers + router + middleware
	oh := http.NewOrderHandler(saga, orderRepo, redisCache)
	bh := http.NewBillingHandler(billing)
	nh := http.NewNotificationHandler(notifRepo)
	th := http.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	var rl gin.HandlerFunc
	if cfg.RateLimit.RPS > 0 {
		rl = middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	router := http.NewRouter(oh, bh, nh, th, authz, rl)

	cleanup := func() {
		bgCancel()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupConsumer(ch *amqp091.Channel, exchange string, notifRepo *repo.MySQLNotificationRepo) error {
	h := queue.NewNotificationHandler(notifRepo)

	router := queue.NewRouter(ch, logging.New("queue"), queue.WithPrefetch(50))
	if err := router.DeclareAndBind(exchange, queue.NotificationQueue,
		"order.completed", "order.failed"); err != nil {
		return err
	}
	router.Register(queue.NotificationQueue, queue.JSONHandler[domain.OrderEventMsg]{HandleFunc: h.HandleEvent})

	return router.Start()
}

func reapIdempotency(ctx context.Context, store usecase.IdempotencyStore, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	log := logging.New("idempotency-reaper")
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Error("purge expired idempotency records", "err", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired idempotency records", "count", n)
			}
		}
	}
}
