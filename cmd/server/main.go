package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/adapters/engine"
	"github.com/khoahotran/blog-search/adapters/event"
	httpAdapter "github.com/khoahotran/blog-search/adapters/http"
	"github.com/khoahotran/blog-search/adapters/media_storage"
	"github.com/khoahotran/blog-search/adapters/persistence"
	backupUC "github.com/khoahotran/blog-search/internal/application/usecase/backup"
	searchUC "github.com/khoahotran/blog-search/internal/application/usecase/search"
	"github.com/khoahotran/blog-search/internal/config"
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/internal/searchindex"
	"github.com/khoahotran/blog-search/pkg/auth"
	"github.com/khoahotran/blog-search/pkg/logger"
	"github.com/khoahotran/blog-search/pkg/tracing"
)

const serviceName = "blog-search-api"

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	appLogger.Info("Start Blog Search API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("cannot init tracing", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Database
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	snapshots, closeSnapshots, err := persistence.OpenSnapshotStore(ctx, cfg, dbPool, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init snapshot store", err)
	}
	defer closeSnapshots()

	// Index
	instanceID := "server-" + uuid.NewString()
	store := searchindex.NewStore(engine.NewFactory(engine.DefaultOptions()), snapshots, appLogger)

	var publisher search.EventPublisher = event.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, instanceID, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient

		reader := event.NewTailReader(cfg, event.TopicSearchEvents, "search-reload-"+instanceID)
		defer reader.Close()
		go func() {
			err := event.ListenIndexEvents(ctx, reader, instanceID, store, appLogger)
			if err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Error("Index event listener stopped", err)
			}
		}()
	} else {
		appLogger.Warn("Kafka brokers not configured, index events are disabled")
	}

	// Repositories
	postRepo := persistence.NewPostgresPostRepo(dbPool, appLogger)

	// Use Cases
	searchUseCase := searchUC.NewSearchUseCase(store, cfg.Search.DefaultLimit, cfg.Search.MaxLimit, appLogger)
	upsertUseCase := searchUC.NewUpsertUseCase(store, publisher, appLogger)
	deleteUseCase := searchUC.NewDeleteIndexUseCase(store, publisher, appLogger)
	rebuildUseCase := searchUC.NewRebuildIndexUseCase(postRepo, store, publisher, appLogger)

	var backupUseCase *backupUC.BackupSnapshotUseCase
	if cfg.Cloudinary.CloudName != "" {
		uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize uploader", err)
		}
		backupUseCase = backupUC.NewBackupSnapshotUseCase(snapshots, uploader, appLogger)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		ServiceName:   serviceName,
		Logger:        appLogger,
		JWT:           auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan),
		SearchHandler: httpAdapter.NewSearchHandler(searchUseCase, store, appLogger),
		IndexHandler:  httpAdapter.NewIndexHandler(upsertUseCase, deleteUseCase, rebuildUseCase, backupUseCase),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
