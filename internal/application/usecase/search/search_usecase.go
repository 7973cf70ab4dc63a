package search

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/internal/searchindex"
	"github.com/khoahotran/blog-search/internal/snippet"
	"github.com/khoahotran/blog-search/pkg/logger"
)

var tracer = otel.Tracer("search_usecase")

const DefaultLimit = 10

type SearchUseCase struct {
	index        *searchindex.Store
	defaultLimit int
	maxLimit     int
	logger       logger.Logger
}

// NewSearchUseCase caps page sizes at maxLimit, itself capped at
// search.MaxLimit. Non-positive values fall back to the package defaults.
func NewSearchUseCase(index *searchindex.Store, defaultLimit, maxLimit int, log logger.Logger) *SearchUseCase {
	maxLimit = ClampLimit(maxLimit, search.MaxLimit, search.MaxLimit)
	return &SearchUseCase{
		index:        index,
		defaultLimit: ClampLimit(defaultLimit, min(DefaultLimit, maxLimit), maxLimit),
		maxLimit:     maxLimit,
		logger:       log,
	}
}

type SearchInput struct {
	Query string
	Limit int
}

type SearchOutput struct {
	Results []search.QueryResult
}

// ClampLimit maps a requested page size onto (0, ceiling]. A ceiling outside
// (0, search.MaxLimit] is treated as search.MaxLimit.
func ClampLimit(requested, fallback, ceiling int) int {
	if ceiling <= 0 || ceiling > search.MaxLimit {
		ceiling = search.MaxLimit
	}
	if requested <= 0 {
		requested = fallback
	}
	return min(requested, ceiling)
}

func (uc *SearchUseCase) Execute(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	limit := ClampLimit(input.Limit, uc.defaultLimit, uc.maxLimit)
	ctx, span := tracer.Start(ctx, "Search", trace.WithAttributes(
		attribute.Int("search.query_length", len(input.Query)),
		attribute.Int("search.limit", limit),
	))
	defer span.End()

	hits, err := uc.index.Query(ctx, input.Query, limit)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Search execution failed", err, zap.String("query", input.Query))
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	results := make([]search.QueryResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, toQueryResult(h, input.Query))
	}

	uc.logger.Info("Search executed", zap.String("query", input.Query), zap.Int("results", len(results)))
	return &SearchOutput{Results: results}, nil
}

func toQueryResult(h search.Hit, query string) search.QueryResult {
	d := h.Document
	return search.QueryResult{
		Post: search.PostProjection{
			ID:       d.ID,
			Slug:     d.Slug,
			Title:    d.Title,
			Summary:  d.Summary,
			Category: d.Category,
		},
		Score: h.Score,
		Matches: search.Matches{
			Title:          highlight(d.Title, h.Terms[search.FieldTitle], query),
			Summary:        highlight(d.Summary, h.Terms[search.FieldSummary], query),
			ContentSnippet: highlight(d.Content, h.Terms[search.FieldContent], query),
		},
	}
}

func highlight(text string, terms []string, query string) *string {
	fragment, ok := snippet.Build(text, terms, query)
	if !ok {
		return nil
	}
	return &fragment
}
