package search

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/internal/searchindex"
	"github.com/khoahotran/blog-search/pkg/logger"
)

type DeleteIndexUseCase struct {
	index     *searchindex.Store
	publisher search.EventPublisher
	logger    logger.Logger
}

func NewDeleteIndexUseCase(index *searchindex.Store, publisher search.EventPublisher, log logger.Logger) *DeleteIndexUseCase {
	return &DeleteIndexUseCase{
		index:     index,
		publisher: publisher,
		logger:    log,
	}
}

type DeleteIndexInput struct {
	ID int64
}

type DeleteIndexOutput struct {
	ID      int64
	Removed bool
}

// Execute drops input.ID from the index and persists the snapshot. An id
// that was never indexed is not an error.
func (uc *DeleteIndexUseCase) Execute(ctx context.Context, input DeleteIndexInput) (*DeleteIndexOutput, error) {
	ctx, span := tracer.Start(ctx, "DeleteIndex")
	defer span.End()
	span.SetAttributes(attribute.Int64("post.id", input.ID))

	id := documentID(input.ID)
	var removed bool
	err := uc.index.Update(ctx, func(w searchindex.Writer) error {
		var err error
		removed, err = w.RemoveIfPresent(ctx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to delete search document", err, zap.Int64("post_id", input.ID))
		return nil, err
	}

	uc.logger.Info("Search document deleted", zap.Int64("post_id", input.ID), zap.Bool("removed", removed))
	publish(ctx, uc.publisher, uc.logger, search.IndexEvent{Type: search.IndexEventDeleted, DocumentID: id})
	return &DeleteIndexOutput{ID: input.ID, Removed: removed}, nil
}
