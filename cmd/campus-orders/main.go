package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/grabandgo/campus-orders/internal/api"
	"github.com/grabandgo/campus-orders/internal/core/ports"
	"github.com/grabandgo/campus-orders/internal/core/service"
	"github.com/grabandgo/campus-orders/internal/infrastructure/broker/amqpbroker"
	"github.com/grabandgo/campus-orders/internal/infrastructure/broker/redisbroker"
	"github.com/grabandgo/campus-orders/internal/infrastructure/config"
	mongodb "github.com/grabandgo/campus-orders/internal/infrastructure/db/mongo"
	redisdb "github.com/grabandgo/campus-orders/internal/infrastructure/db/redis"
	"github.com/grabandgo/campus-orders/internal/infrastructure/db/sqlite"
	"github.com/grabandgo/campus-orders/internal/infrastructure/http/handlers"
	"github.com/grabandgo/campus-orders/internal/infrastructure/queue"
	"github.com/grabandgo/campus-orders/internal/infrastructure/realtime"
	"github.com/grabandgo/campus-orders/internal/infrastructure/seed"
	"github.com/grabandgo/campus-orders/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	storeTimeout    = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "campus-orders:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("campus-orders", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file loaded before the environment")
	seedFile := flags.String("seed", "", "YAML seed file applied at startup (overrides SEED_FILE)")
	migrateOnly := flags.Bool("migrate-only", false, "migrate the database, apply the seed file and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *envFile)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "campus-orders",
	})

	db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLite.Path})
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlite.Close(db); err != nil {
			log.Warn().Err(err).Msg("sqlite close")
		}
	}()

	storeLog := logger.Component(log, "sqlite")
	users := sqlite.NewUserRepository(db, storeLog)
	restaurants := sqlite.NewRestaurantRepository(db, storeLog)
	menu := sqlite.NewMenuRepository(db, storeLog)
	orders := sqlite.NewOrderRepository(db, storeLog)

	if path := firstNonEmpty(*seedFile, cfg.SeedFile); path != "" {
		if err := seed.NewSeeder(users, menu, logger.Component(log, "seed")).LoadFile(ctx, path); err != nil {
			return err
		}
	}
	if *migrateOnly {
		log.Info().Str("path", cfg.SQLite.Path).Msg("schema migrated")
		return nil
	}

	return serve(ctx, cfg, log, backends{
		db:          db,
		users:       users,
		restaurants: restaurants,
		menu:        menu,
		orders:      orders,
	})
}

type backends struct {
	db          *gorm.DB
	users       ports.UserRepository
	restaurants ports.RestaurantRepository
	menu        ports.MenuRepository
	orders      ports.OrderRepository
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, b backends) error {
	health := []handlers.Dependency{{
		Name:  "sqlite",
		Check: func(ctx context.Context) error { return sqlite.Ping(ctx, b.db) },
	}}
	orderDeps := service.OrderDeps{
		Orders:      b.orders,
		Menu:        b.menu,
		Restaurants: b.restaurants,
	}
	var dedup service.DedupChecker

	if cfg.Mongo.URI != "" {
		client, mdb, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			if err := mongodb.Disconnect(client, storeTimeout); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}()
		audit := mongodb.NewAuditRepository(mdb, storeTimeout)
		if err := audit.EnsureIndexes(ctx); err != nil {
			return err
		}
		orderDeps.Audit = audit
		health = append(health, handlers.Dependency{
			Name:     "mongo",
			Optional: true,
			Check:    func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		})
	} else {
		log.Warn().Msg("MONGO_URI not set, order audit trail disabled")
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
		dedup = redisdb.NewDedupChecker(client)
		orderDeps.Limiter = redisdb.NewAttemptLimiter(client, cfg.Orders.VerifyAttemptsPerMinute, time.Minute)
		orderDeps.Idempotency = redisdb.NewIdempotencyStore(client)
		health = append(health, handlers.Dependency{
			Name:     "redis",
			Optional: cfg.Realtime.Broker != config.BrokerRedis,
			Check:    func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	} else {
		log.Warn().Msg("REDIS_ADDR not set, fan-out dedup, pickup rate limiting and idempotency keys disabled")
	}

	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.RealtimeSecret, cfg.Auth.RealtimeTokenTTL)
	hub := realtime.NewHub(tokens, cfg.Realtime.AllowedOrigins, logger.Component(log, "realtime"))

	var (
		publisher  ports.Publisher = hub
		subscriber ports.Subscriber
	)
	switch cfg.Realtime.Broker {
	case config.BrokerRedis:
		rb := redisbroker.New(rdb, logger.Component(log, "redisbroker"))
		publisher, subscriber = rb, rb
	case config.BrokerAMQP:
		ab, err := amqpbroker.Dial(cfg.AMQP.URL, logger.Component(log, "amqpbroker"))
		if err != nil {
			return err
		}
		defer ab.Close()
		publisher, subscriber = ab, ab
		health = append(health, handlers.Dependency{
			Name: "amqp",
			Check: func(context.Context) error {
				if !ab.IsAlive() {
					return errors.New("connection closed")
				}
				return nil
			},
		})
	}

	dispatcher := queue.NewDispatcher(cfg.Realtime.FanoutWorkers, publisher, logger.Component(log, "dispatcher"))
	notifier := service.NewNotifier(dispatcher, dedup, logger.Component(log, "notifier"))
	orderDeps.Notifier = notifier

	router := api.NewRouter(api.Deps{
		Auth:         service.NewAuthService(b.users, tokens, logger.Component(log, "auth")),
		Orders:       service.NewOrderService(orderDeps, cfg.Orders.PickupCodeDigits, logger.Component(log, "orders")),
		Catalog:      service.NewCatalogService(b.restaurants, b.menu, notifier, cfg.Location(), logger.Component(log, "catalog")),
		Sessions:     tokens,
		Realtime:     hub,
		Health:       health,
		AllowOrigins: cfg.Realtime.AllowedOrigins,
		Logger:       logger.Component(log, "http"),
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Workers keep publishing until the HTTP server has drained.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("broker", cfg.Realtime.Broker).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if subscriber != nil {
		g.Go(func() error {
			if err := hub.RunSubscriber(gctx, subscriber); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("broker subscription: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		hub.Close()
		return err
	})

	err := g.Wait()
	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("stopped")
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
