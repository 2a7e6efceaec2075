package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/caskettrack/api/routes"
	"github.com/angelmondragon/caskettrack/internal/barcode"
	"github.com/angelmondragon/caskettrack/internal/inventory"
	"github.com/angelmondragon/caskettrack/internal/orders"
	"github.com/angelmondragon/caskettrack/pkg/backoff"
	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/angelmondragon/caskettrack/pkg/db"
	"github.com/angelmondragon/caskettrack/pkg/instance"
	"github.com/angelmondragon/caskettrack/pkg/logger"
	"github.com/angelmondragon/caskettrack/pkg/metrics"
	"github.com/angelmondragon/caskettrack/pkg/migrate"
	"github.com/angelmondragon/caskettrack/pkg/notify"
	"github.com/angelmondragon/caskettrack/pkg/pubsub"
	"github.com/angelmondragon/caskettrack/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
	}

	var pubsubClient *pubsub.Client
	if cfg.Notify.Enabled(config.NotifyDriverPubSub) {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
	}

	registry := metrics.NewRegistry()
	inventoryMetrics := metrics.NewInventoryMetrics(registry)

	publisher, err := notify.Build(ctx, cfg, logg, notify.Deps{Redis: redisClient, PubSub: pubsubClient})
	if err != nil {
		logg.Error(ctx, "failed to build notifier", err)
		os.Exit(1)
	}
	dispatcher := notify.NewDispatcher(publisher, cfg.Notify.Topic, cfg.Notify.Timeout, logg, inventoryMetrics)

	resolver, err := buildResolver(cfg.Scan)
	if err != nil {
		logg.Error(ctx, "failed to load product catalog", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(
		inventory.NewRepository(dbClient.DB()),
		dbClient,
		resolver,
		dispatcher,
		inventory.Options{
			Policy:  backoff.FromConfig(cfg.Scan),
			Metrics: inventoryMetrics,
			Logger:  logg,
		},
	)
	if err != nil {
		logg.Error(ctx, "failed to create inventory service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), inventoryService, dispatcher, inventoryMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"instance":   instance.GetID(),
		"db_dialect": dbClient.Dialect(),
		"notify":     publisher.Drivers(),
		"prefixes":   resolver.Size(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:        dbClient,
			Redis:     redisClient,
			Registry:  registry,
			Inventory: inventoryService,
			Orders:    ordersService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	// Backends close only after in-flight requests have finished publishing.
	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"api": func(ctx context.Context) error {
			err := server.Shutdown(ctx)
			return multierr.Append(err, closeBackends(ctx, logg, dispatcher, redisClient, pubsubClient, dbClient))
		},
	})

	exitCode := <-wait
	logg.Info(ctx, "api server stopped")
	os.Exit(exitCode)
}

func buildResolver(cfg config.ScanConfig) (*barcode.Resolver, error) {
	table := barcode.DefaultTable()
	if cfg.CatalogFile != "" {
		extra, err := barcode.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		table = table.Merge(extra)
	}
	return barcode.NewResolver(table, cfg.DeviceCommands), nil
}

// closeBackends releases publishers before the stores they may still read.
func closeBackends(ctx context.Context, logg *logger.Logger, dispatcher *notify.Dispatcher, redisClient *redis.Client, pubsubClient *pubsub.Client, dbClient *db.Client) error {
	err := dispatcher.Close()
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	if pubsubClient != nil {
		err = multierr.Append(err, pubsubClient.Close())
	}
	err = multierr.Append(err, dbClient.Close())
	if err != nil {
		logg.Error(ctx, "error closing backends", err)
	}
	return err
}
