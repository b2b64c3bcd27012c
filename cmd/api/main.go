package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/stock-ledger/internal/api/http"
	"github.com/spec-kit/stock-ledger/internal/api/http/handlers"
	"github.com/spec-kit/stock-ledger/internal/archive"
	"github.com/spec-kit/stock-ledger/internal/auth"
	"github.com/spec-kit/stock-ledger/internal/cache"
	"github.com/spec-kit/stock-ledger/internal/config"
	"github.com/spec-kit/stock-ledger/internal/events"
	"github.com/spec-kit/stock-ledger/internal/messaging"
	"github.com/spec-kit/stock-ledger/internal/observability"
	"github.com/spec-kit/stock-ledger/internal/persistence"
	"github.com/spec-kit/stock-ledger/internal/repository"
	"github.com/spec-kit/stock-ledger/internal/repository/memory"
	"github.com/spec-kit/stock-ledger/internal/service"
	"github.com/spec-kit/stock-ledger/internal/worker"
)

// storage is the repository set backing one storage driver.
type storage struct {
	catalog      repository.CatalogRepository
	accounts     repository.AccountRepository
	items        repository.ItemRepository
	reservations repository.ReservationRepository
	health       map[string]handlers.Pinger
	closers      []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.StorageDriver()), zap.Error(err))
	}
	defer store.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if redis != nil {
		store.health["redis"] = redis
	}

	publisher, err := messaging.NewRabbit(cfg.Notification.AMQPURL, cfg.Notification.Queue)
	if err != nil {
		logger.Warn("notification broker unavailable; events will only be logged", zap.Error(err))
	}
	defer publisher.Close()

	var archiver archive.Archiver
	s3Archiver, err := archive.NewS3Archiver(ctx, cfg.Export)
	switch {
	case err == nil:
		archiver = s3Archiver
	case errors.Is(err, archive.ErrDisabled):
		logger.Info("EXPORT_S3_BUCKET not provided; export archiving disabled")
	default:
		logger.Warn("export archive unavailable", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, publisher, logger), publisher, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo: store.accounts,
		CatalogRepo: store.catalog,
	})
	catalogService := service.NewCatalogService(store.catalog,
		cache.NewCatalogCache(redis.Handle(), cfg.Redis.CatalogTTL()), logger)
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		ItemRepo:    store.items,
		CatalogRepo: store.catalog,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
	})
	reservationService := service.NewReservationService(service.ReservationDependencies{
		ItemRepo:        store.items,
		ReservationRepo: store.reservations,
		Ledger:          ledgerService,
		Dispatcher:      dispatcher,
	})
	transferService := service.NewTransferService(service.TransferDependencies{
		Catalog:    catalogService,
		Auth:       authService,
		Ledger:     ledgerService,
		Archiver:   archiver,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	seed, err := config.LoadSeed(cfg.Seed.File)
	if err != nil {
		logger.Fatal("failed to load seed", zap.Error(err))
	}
	if err := service.ApplySeed(ctx, seed, catalogService, authService, logger); err != nil {
		logger.Fatal("failed to apply seed", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.accounts)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store.health),
		Auth:           handlers.NewAuthHandler(authService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Items:          handlers.NewItemsHandler(ledgerService),
		Reservations:   handlers.NewReservationsHandler(reservationService),
		Transfer:       handlers.NewTransferHandler(transferService),
		Metrics:        metrics.Handler(),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("storage", cfg.StorageDriver()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// openStorage selects Postgres, then SQLite, then the in-memory store.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.StorageDriver() {
	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		return &storage{
			catalog:      repository.NewCatalogRepository(pool),
			accounts:     repository.NewAccountRepository(pool),
			items:        repository.NewItemRepository(pool),
			reservations: repository.NewReservationRepository(pool),
			health:       map[string]handlers.Pinger{"postgres": pg},
			closers:      []func(){pg.Close},
		}, nil

	case config.DriverSQLite:
		mem := memory.NewStore()
		snap, err := persistence.OpenSQLite(cfg.SQLite.Path, mem, logger)
		if err != nil {
			return nil, err
		}
		return memoryStorage(mem, map[string]handlers.Pinger{"sqlite": snap}, snap.Close), nil

	default:
		logger.Warn("no database configured; state lives in memory only")
		mem := memory.NewStore()
		return memoryStorage(mem, map[string]handlers.Pinger{"memory": mem}), nil
	}
}

func memoryStorage(mem *memory.Store, health map[string]handlers.Pinger, closers ...func()) *storage {
	return &storage{
		catalog:      mem.Catalog(),
		accounts:     mem.Accounts(),
		items:        mem.Items(),
		reservations: mem.Reservations(),
		health:       health,
		closers:      closers,
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
