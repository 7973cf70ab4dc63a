package search

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/domain/post"
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/internal/searchindex"
	"github.com/khoahotran/blog-search/pkg/logger"
)

type RebuildIndexUseCase struct {
	postRepo  post.Repository
	index     *searchindex.Store
	publisher search.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewRebuildIndexUseCase(pRepo post.Repository, index *searchindex.Store, publisher search.EventPublisher, log logger.Logger) *RebuildIndexUseCase {
	return &RebuildIndexUseCase{
		postRepo:  pRepo,
		index:     index,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

type RebuildOutput struct {
	Indexed  int
	Duration time.Duration
}

func (o RebuildOutput) DurationMillis() int64 {
	return o.Duration.Milliseconds()
}

// Execute re-derives the whole index from the post store into a detached
// handle and swaps it in only once every insert succeeded. On any failure,
// including ctx cancellation, the live index is left untouched.
func (uc *RebuildIndexUseCase) Execute(ctx context.Context) (*RebuildOutput, error) {
	ctx, span := tracer.Start(ctx, "RebuildIndex")
	defer span.End()

	start := time.Now()
	posts, err := uc.postRepo.ListVisible(ctx, uc.now())
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to list visible posts", err)
		return nil, err
	}

	next, err := uc.index.NewHandle()
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			_ = next.Close()
			uc.logger.Warn("Index rebuild cancelled", zap.Error(err))
			return nil, err
		}
		if err := next.Insert(ctx, buildDocument(inputFromPost(p))); err != nil {
			_ = next.Close()
			span.RecordError(err)
			uc.logger.Error("Index rebuild aborted", err, zap.Int64("post_id", p.ID))
			return nil, fmt.Errorf("index post %d: %w", p.ID, err)
		}
	}

	if err := uc.index.Swap(ctx, next); err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to persist rebuilt index", err)
		return nil, err
	}

	out := &RebuildOutput{Indexed: len(posts), Duration: time.Since(start)}
	span.SetAttributes(attribute.Int("search.indexed", out.Indexed))
	uc.logger.Info("Search index rebuilt", zap.Int("indexed", out.Indexed), zap.Int64("duration_ms", out.DurationMillis()))
	publish(ctx, uc.publisher, uc.logger, search.IndexEvent{Type: search.IndexEventRebuilt, Indexed: out.Indexed})
	return out, nil
}
