package http

import (
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/internal/richtext"
)

type PostProjectionDTO struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// MatchesDTO fields are HTML fragments; null when the field was blank.
type MatchesDTO struct {
	Title          *string `json:"title"`
	Summary        *string `json:"summary"`
	ContentSnippet *string `json:"contentSnippet"`
}

type QueryResultDTO struct {
	Post    PostProjectionDTO `json:"post"`
	Score   float64           `json:"score"`
	Matches MatchesDTO        `json:"matches"`
}

func ToQueryResultDTO(r search.QueryResult) QueryResultDTO {
	return QueryResultDTO{
		Post: PostProjectionDTO{
			ID:       r.Post.ID,
			Slug:     r.Post.Slug,
			Title:    r.Post.Title,
			Summary:  r.Post.Summary,
			Category: r.Post.Category,
		},
		Score: r.Score,
		Matches: MatchesDTO{
			Title:          r.Matches.Title,
			Summary:        r.Matches.Summary,
			ContentSnippet: r.Matches.ContentSnippet,
		},
	}
}

type UpsertDocumentRequest struct {
	Slug        string         `json:"slug" binding:"required"`
	Title       string         `json:"title" binding:"required"`
	Summary     *string        `json:"summary"`
	Category    string         `json:"category"`
	ContentJSON *richtext.Node `json:"content_json"`
}

type IndexMutationResponse struct {
	ID int64 `json:"id"`
}

type RebuildResponse struct {
	Indexed  int   `json:"indexed"`
	Duration int64 `json:"duration"`
}

type BackupResponse struct {
	URL      string `json:"url,omitempty"`
	PublicID string `json:"public_id,omitempty"`
	Bytes    int    `json:"bytes"`
	Skipped  bool   `json:"skipped"`
}
