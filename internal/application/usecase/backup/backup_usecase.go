package backup

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/application/service"
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/pkg/logger"
)

var tracer = otel.Tracer("backup_usecase")

const backupFolder = "backups/search"

// BackupSnapshotUseCase copies the persisted index snapshot off-site.
type BackupSnapshotUseCase struct {
	snapshots search.SnapshotStore
	uploader  service.Uploader
	logger    logger.Logger
	now       func() time.Time
}

func NewBackupSnapshotUseCase(snapshots search.SnapshotStore, uploader service.Uploader, log logger.Logger) *BackupSnapshotUseCase {
	return &BackupSnapshotUseCase{
		snapshots: snapshots,
		uploader:  uploader,
		logger:    log,
		now:       time.Now,
	}
}

type BackupOutput struct {
	URL      string
	PublicID string
	Bytes    int
	// Skipped is set when there was no snapshot to copy.
	Skipped bool
}

func (uc *BackupSnapshotUseCase) Execute(ctx context.Context) (*BackupOutput, error) {
	ctx, span := tracer.Start(ctx, "BackupSnapshot")
	defer span.End()

	uc.logger.Info("Starting search snapshot backup...")

	data, err := uc.snapshots.Load(ctx)
	if err != nil {
		uc.logger.Error("Failed to load search snapshot", err)
		return nil, err
	}
	if len(data) == 0 {
		uc.logger.Info("No search snapshot persisted yet, skipping backup")
		return &BackupOutput{Skipped: true}, nil
	}

	timestamp := uc.now().UTC().Format("2006-01-02_15-04-05")
	publicID := fmt.Sprintf("index-%s.json", timestamp)

	uploadURL, err := uc.uploader.Upload(ctx, bytes.NewReader(data), backupFolder, publicID)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to upload search snapshot to Cloudinary", err)
		return nil, err
	}

	uc.logger.Info("Search snapshot backup completed and uploaded successfully",
		zap.String("url", uploadURL),
		zap.String("public_id", backupFolder+"/"+publicID),
		zap.Int("bytes", len(data)),
	)
	return &BackupOutput{URL: uploadURL, PublicID: backupFolder + "/" + publicID, Bytes: len(data)}, nil
}
