package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/devicehub-backend/api"
	"github.com/angelmondragon/devicehub-backend/api/controllers"
	"github.com/angelmondragon/devicehub-backend/api/routes"
	"github.com/angelmondragon/devicehub-backend/internal/cart"
	"github.com/angelmondragon/devicehub-backend/internal/catalog"
	"github.com/angelmondragon/devicehub-backend/internal/checkout"
	"github.com/angelmondragon/devicehub-backend/internal/notifications"
	"github.com/angelmondragon/devicehub-backend/internal/orders"
	"github.com/angelmondragon/devicehub-backend/internal/promotions"
	pkgAuth "github.com/angelmondragon/devicehub-backend/pkg/auth"
	"github.com/angelmondragon/devicehub-backend/pkg/config"
	"github.com/angelmondragon/devicehub-backend/pkg/db"
	"github.com/angelmondragon/devicehub-backend/pkg/instance"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
	"github.com/angelmondragon/devicehub-backend/pkg/metrics"
	"github.com/angelmondragon/devicehub-backend/pkg/migrate"
	"github.com/angelmondragon/devicehub-backend/pkg/pubsub"
	"github.com/angelmondragon/devicehub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		Instance:    instance.ID(),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)

	health := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}

	var notifiers []notifications.Notifier
	if telegram := notifications.NewTelegram(cfg.Telegram, nil); telegram != nil {
		notifiers = append(notifiers, telegram)
	}
	if cfg.PubSub.Enabled {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		health["pubsub"] = psClient
		notifiers = append(notifiers, notifications.NewPubSub(psClient.Orders()))
	}
	notifier := notifications.NewFanout(orderMetrics, notifiers...)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	promotionsRepo := promotions.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	signer, err := pkgAuth.NewSigner(cfg.JWT)
	requireService(ctx, logg, "operator token signer", err)

	validator, err := promotions.NewValidator(promotionsRepo)
	requireService(ctx, logg, "promotion validator", err)

	sessionStore, err := cart.NewRedisSessionStore(redisClient, cfg.Cart.SessionTTL)
	requireService(ctx, logg, "cart session store", err)
	cartService, err := cart.NewService(sessionStore, catalogRepo, validator)
	requireService(ctx, logg, "cart service", err)

	normalizer, err := orders.NewNormalizer(catalogRepo, logg)
	requireService(ctx, logg, "order normalizer", err)
	reportGenerations, err := orders.NewRedisGenerations(redisClient)
	requireService(ctx, logg, "order report generations", err)
	reportService, err := orders.NewReportService(ordersRepo, normalizer, promotionsRepo, reportGenerations, cfg.Reports.CacheTTL)
	requireService(ctx, logg, "order report service", err)
	bulkMutator, err := orders.NewBulkMutator(ordersRepo, dbClient, reportService, orderMetrics, logg)
	requireService(ctx, logg, "bulk order mutator", err)

	guard, err := checkout.NewRedisGuard(redisClient, cfg.Cart.CheckoutLockTTL)
	requireService(ctx, logg, "checkout guard", err)
	checkoutService, err := checkout.NewService(checkout.Deps{
		Cart:          cartService,
		Validator:     validator,
		Orders:        ordersRepo,
		Usage:         promotionsRepo,
		Guard:         guard,
		Notifier:      notifier,
		Reports:       reportService,
		Metrics:       orderMetrics,
		Logger:        logg,
		NotifyTimeout: cfg.Telegram.Timeout,
	})
	requireService(ctx, logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"notifiers": notifier.Len(),
	})
	logg.Info(logCtx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Health:   health,
		Store:    redisClient,
		Tokens:   signer,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Cart:     cartService,
		Checkout: checkoutService,
		Reports:  reportService,
		Bulk:     bulkMutator,
	}))

	if err := api.Serve(ctx, server, logg); err != nil && err != http.ErrServerClosed {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(logCtx, "api server stopped")
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to build "+name, err)
	os.Exit(1)
}
