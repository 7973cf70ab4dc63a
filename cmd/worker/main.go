package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/adapters/engine"
	"github.com/khoahotran/blog-search/adapters/event"
	"github.com/khoahotran/blog-search/adapters/media_storage"
	"github.com/khoahotran/blog-search/adapters/persistence"
	backupUC "github.com/khoahotran/blog-search/internal/application/usecase/backup"
	searchUC "github.com/khoahotran/blog-search/internal/application/usecase/search"
	"github.com/khoahotran/blog-search/internal/config"
	"github.com/khoahotran/blog-search/internal/scheduler"
	"github.com/khoahotran/blog-search/internal/searchindex"
	"github.com/khoahotran/blog-search/pkg/logger"
	"github.com/khoahotran/blog-search/pkg/tracing"
)

const serviceName = "blog-search-worker"

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	appLogger.Info("Starting Blog Search Worker...")

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

	instanceID := "worker-" + uuid.NewString()
	store := searchindex.NewStore(engine.NewFactory(engine.DefaultOptions()), snapshots, appLogger)

	kafkaClient, err := event.NewKafkaProducerClient(cfg, instanceID, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	// Repositories
	postRepo := persistence.NewPostgresPostRepo(dbPool, appLogger)

	// Use Cases
	upsertUseCase := searchUC.NewUpsertUseCase(store, kafkaClient, appLogger)
	deleteUseCase := searchUC.NewDeleteIndexUseCase(store, kafkaClient, appLogger)
	rebuildUseCase := searchUC.NewRebuildIndexUseCase(postRepo, store, kafkaClient, appLogger)
	syncPostUseCase := searchUC.NewSyncPostUseCase(postRepo, upsertUseCase, deleteUseCase, appLogger)

	// Scheduled jobs
	jobs := scheduler.New(appLogger)
	err = jobs.ScheduleCron("rebuild-index", cfg.Search.RebuildCron, func(ctx context.Context) error {
		_, err := rebuildUseCase.Execute(ctx)
		return err
	})
	if err != nil {
		appLogger.Fatal("cannot schedule index rebuild", err)
	}
	if cfg.Cloudinary.CloudName != "" {
		uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize uploader", err)
		}
		backupUseCase := backupUC.NewBackupSnapshotUseCase(snapshots, uploader, appLogger)
		err = jobs.ScheduleCron("backup-snapshot", cfg.Search.BackupCron, func(ctx context.Context) error {
			_, err := backupUseCase.Execute(ctx)
			return err
		})
		if err != nil {
			appLogger.Fatal("cannot schedule snapshot backup", err)
		}
	}
	jobs.Start()
	defer jobs.Stop()

	// Keep this process's handle current with writes made by API servers.
	searchReader := event.NewTailReader(cfg, event.TopicSearchEvents, "search-reload-"+instanceID)
	defer searchReader.Close()
	go func() {
		err := event.ListenIndexEvents(ctx, searchReader, instanceID, store, appLogger)
		if err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("Index event listener stopped", err)
		}
	}()

	// Kafka Consumer
	postConsumer := event.NewReader(cfg, event.TopicPostEvents, cfg.Kafka.GroupID)
	defer postConsumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicPostEvents), zap.String("group_id", cfg.Kafka.GroupID))

	err = event.Consume(ctx, postConsumer, appLogger, func(ctx context.Context, msg kafka.Message) error {
		payload, err := event.DecodePostEvent(msg)
		if err != nil {
			return err
		}

		appLogger.Info("Processing post event", zap.String("event_type", string(payload.EventType)), zap.Int64("post_id", payload.PostID))

		_, err = syncPostUseCase.Execute(ctx, searchUC.SyncPostInput{
			PostID:  payload.PostID,
			Deleted: payload.EventType == event.PostEventTypeDeleted,
		})
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Post event consumer stopped", err)
	}
	appLogger.Info("Worker stopped")
}
