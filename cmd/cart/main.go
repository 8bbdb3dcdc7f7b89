package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopcart/internal/authclient"
	"github.com/Skotchmaster/shopcart/internal/catalog"
	"github.com/Skotchmaster/shopcart/internal/config"
	"github.com/Skotchmaster/shopcart/internal/db"
	"github.com/Skotchmaster/shopcart/internal/es"
	"github.com/Skotchmaster/shopcart/internal/httpserver"
	"github.com/Skotchmaster/shopcart/internal/logging"
	authmw "github.com/Skotchmaster/shopcart/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/shopcart/internal/middleware/logging"
	"github.com/Skotchmaster/shopcart/internal/mongodb"
	"github.com/Skotchmaster/shopcart/internal/mykafka"
	"github.com/Skotchmaster/shopcart/internal/repo"
	"github.com/Skotchmaster/shopcart/internal/service"
)

type store interface {
	service.CartStore
	service.OrderStore
}

type backends struct {
	mongo *mongo.Client
	mdb   *mongo.Database
	sql   *gorm.DB
	redis *redis.Client
}

func (b *backends) ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if b.mongo != nil {
		if err := b.mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	if b.sql != nil {
		sqlDB, err := b.sql.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("sql: %w", err)
		}
	}
	return nil
}

func (b *backends) close(ctx context.Context, l *slog.Logger) {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			l.Warn("redis_close_error", "error", err)
		}
	}
	if b.mongo != nil {
		if err := b.mongo.Disconnect(ctx); err != nil {
			l.Warn("mongo_disconnect_error", "error", err)
		}
	}
	if b.sql != nil {
		if err := db.Close(b.sql); err != nil {
			l.Warn("sql_close_error", "error", err)
		}
	}
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.NeedsMongo() {
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		b.mongo = client
		b.mdb = client.Database(cfg.MongoDatabase)
	}
	if cfg.NeedsSQL() {
		gdb, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			b.close(ctx, slog.Default())
			return nil, err
		}
		b.sql = gdb
	}
	return b, nil
}

func buildCatalog(ctx context.Context, cfg config.Config, b *backends, l *slog.Logger) (catalog.Catalog, error) {
	var cat catalog.Catalog
	switch cfg.CatalogSource {
	case config.CatalogMongo:
		cat = &catalog.MongoCatalog{DB: b.mdb}
	case config.CatalogPostgres:
		gc := &catalog.GormCatalog{DB: b.sql}
		if strings.HasPrefix(cfg.DatabaseURL, db.SQLitePrefix) {
			if err := gc.Migrate(); err != nil {
				return nil, err
			}
		}
		cat = gc
	case config.CatalogElastic:
		client, err := es.NewClient(es.Config{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			return nil, err
		}
		cat = &catalog.ElasticCatalog{ES: client, ProductIndex: cfg.ESProductIndex, FoodIndex: cfg.ESFoodIndex}
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}

	if cfg.RedisAddress == "" {
		return cat, nil
	}
	b.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress, Password: cfg.RedisPassword})
	if err := b.redis.Ping(ctx).Err(); err != nil {
		l.Warn("redis_ping_error", "address", cfg.RedisAddress, "error", err)
	}
	return catalog.NewCache(cat, b.redis, cfg.CatalogCacheTTL), nil
}

func buildStore(ctx context.Context, cfg config.Config, b *backends) (store, error) {
	if cfg.CartStore == config.StoreMongo {
		if err := mongodb.EnsureIndexes(ctx, b.mdb); err != nil {
			return nil, err
		}
		return &repo.MongoRepo{DB: b.mdb}, nil
	}
	r := &repo.GormRepo{DB: b.sql}
	if err := r.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	b, err := openBackends(initCtx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("storage init error: %v", err)
	}
	cat, err := buildCatalog(initCtx, cfg, b, logger)
	if err != nil {
		cancel()
		log.Fatalf("catalog init error: %v", err)
	}
	st, err := buildStore(initCtx, cfg, b)
	cancel()
	if err != nil {
		log.Fatalf("store init error: %v", err)
	}

	events := mykafka.New(cfg.KafkaBrokers)

	var stock catalog.StockAdjuster = cat
	if cfg.CatalogSource == config.CatalogElastic {
		stock = nil
	}

	carts := &service.CartService{
		Repo:          st,
		Catalog:       cat,
		Events:        events,
		LookupTimeout: cfg.CatalogTimeout,
	}
	orders := &service.OrderService{
		Repo:   st,
		Carts:  carts,
		Stock:  stock,
		Events: events,
	}

	var refresher authmw.Refresher
	if cfg.AuthURL != "" {
		refresher = authclient.New(authclient.Config{URL: cfg.AuthURL, Secret: cfg.JWTSecret})
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Cart:      &httpserver.CartHTTP{Svc: carts},
		Orders:    &httpserver.OrderHTTP{Svc: orders},
		JWTSecret: cfg.JWTSecret,
		Refresher: refresher,
		Ready:     b.ready,
		CSRF:      cfg.CSRFEnabled,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("starting cart service", "addr", addr, "cart_store", cfg.CartStore, "catalog", cfg.CatalogSource)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("echo_shutdown_error", "error", err)
	}
	if err := events.Close(); err != nil {
		logger.Warn("kafka_close_error", "error", err)
	}
	b.close(shutdownCtx, logger)

	logger.Info("server stopped")
}
