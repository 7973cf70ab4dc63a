package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/domain/post"
	"github.com/khoahotran/blog-search/pkg/logger"
)

// SyncPostUseCase reconciles one post with the index after the CMS changed it.
type SyncPostUseCase struct {
	postRepo post.Repository
	upsert   *UpsertUseCase
	delete   *DeleteIndexUseCase
	logger   logger.Logger
	now      func() time.Time
}

func NewSyncPostUseCase(pRepo post.Repository, upsert *UpsertUseCase, del *DeleteIndexUseCase, log logger.Logger) *SyncPostUseCase {
	return &SyncPostUseCase{
		postRepo: pRepo,
		upsert:   upsert,
		delete:   del,
		logger:   log,
		now:      time.Now,
	}
}

type SyncPostInput struct {
	PostID  int64
	Deleted bool
}

type SyncPostOutput struct {
	ID      int64
	Indexed bool
}

func (uc *SyncPostUseCase) Execute(ctx context.Context, input SyncPostInput) (*SyncPostOutput, error) {
	if input.Deleted {
		return uc.remove(ctx, input.PostID)
	}

	p, err := uc.postRepo.FindByID(ctx, input.PostID)
	if errors.Is(err, post.ErrPostNotFound) {
		uc.logger.Info("Post no longer exists, dropping from index", zap.Int64("post_id", input.PostID))
		return uc.remove(ctx, input.PostID)
	}
	if err != nil {
		uc.logger.Error("Failed to load post for index sync", err, zap.Int64("post_id", input.PostID))
		return nil, err
	}

	if !p.IsVisible(uc.now()) {
		return uc.remove(ctx, input.PostID)
	}
	if _, err := uc.upsert.Execute(ctx, inputFromPost(p)); err != nil {
		return nil, err
	}
	return &SyncPostOutput{ID: input.PostID, Indexed: true}, nil
}

func (uc *SyncPostUseCase) remove(ctx context.Context, id int64) (*SyncPostOutput, error) {
	if _, err := uc.delete.Execute(ctx, DeleteIndexInput{ID: id}); err != nil {
		return nil, err
	}
	return &SyncPostOutput{ID: id}, nil
}
