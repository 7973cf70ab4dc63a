package search

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/domain/post"
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/internal/richtext"
	"github.com/khoahotran/blog-search/internal/searchindex"
	"github.com/khoahotran/blog-search/pkg/logger"
)

type UpsertUseCase struct {
	index     *searchindex.Store
	publisher search.EventPublisher
	logger    logger.Logger
}

func NewUpsertUseCase(index *searchindex.Store, publisher search.EventPublisher, log logger.Logger) *UpsertUseCase {
	return &UpsertUseCase{
		index:     index,
		publisher: publisher,
		logger:    log,
	}
}

type UpsertInput struct {
	ID          int64
	Slug        string
	Title       string
	Summary     *string
	Category    string
	ContentJSON *richtext.Node
}

type UpsertOutput struct {
	ID int64
}

// Execute replaces whatever the index holds for input.ID with a fresh
// projection and persists the snapshot.
func (uc *UpsertUseCase) Execute(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	ctx, span := tracer.Start(ctx, "Upsert")
	defer span.End()
	span.SetAttributes(attribute.Int64("post.id", input.ID))

	doc := buildDocument(input)
	var replaced bool
	err := uc.index.Update(ctx, func(w searchindex.Writer) error {
		var err error
		if replaced, err = w.RemoveIfPresent(ctx, doc.ID); err != nil {
			return err
		}
		return w.Insert(ctx, doc)
	})
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to upsert search document", err, zap.Int64("post_id", input.ID))
		return nil, err
	}

	uc.logger.Info("Search document upserted", zap.Int64("post_id", input.ID), zap.Bool("replaced", replaced))
	publish(ctx, uc.publisher, uc.logger, search.IndexEvent{Type: search.IndexEventUpserted, DocumentID: doc.ID})
	return &UpsertOutput{ID: input.ID}, nil
}

func buildDocument(input UpsertInput) search.SearchDocument {
	content := richtext.Truncate(richtext.Flatten(input.ContentJSON), richtext.ContentSlice)
	var summary string
	if input.Summary != nil {
		summary = *input.Summary
	}
	return search.SearchDocument{
		ID:       documentID(input.ID),
		Slug:     input.Slug,
		Title:    input.Title,
		Summary:  richtext.FallbackSummary(summary, content),
		Content:  content,
		Category: input.Category,
	}
}

func inputFromPost(p *post.Post) UpsertInput {
	return UpsertInput{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Summary:     p.Summary,
		Category:    p.Category,
		ContentJSON: p.ContentJSON,
	}
}

func documentID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// publish announces a persisted index change. Delivery failures are logged
// only; the snapshot is already durable.
func publish(ctx context.Context, p search.EventPublisher, log logger.Logger, e search.IndexEvent) {
	if p == nil {
		return
	}
	if err := p.PublishIndexEvent(ctx, e); err != nil {
		log.Warn("Failed to publish index event",
			zap.String("event_type", string(e.Type)),
			zap.String("document_id", e.DocumentID),
			zap.Error(err),
		)
	}
}
