package post

import (
	"context"
	"errors"
	"time"

	"github.com/khoahotran/blog-search/internal/richtext"
)

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
	StatusArchived  PostStatus = "archived"
)

// Post is the authoritative record owned by the CMS. The search service only
// reads it.
type Post struct {
	ID          int64          `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Summary     *string        `json:"summary"`
	Category    string         `json:"category"`
	ContentJSON *richtext.Node `json:"content_json"`
	Status      PostStatus     `json:"status"`
	PublishedAt *time.Time     `json:"published_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

var ErrPostNotFound = errors.New("post not found")

// IsVisible reports whether the post belongs in the public index at now.
func (p *Post) IsVisible(now time.Time) bool {
	return p.Status == StatusPublished && p.PublishedAt != nil && !p.PublishedAt.After(now)
}

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Post, error)
	// ListVisible returns every post with status published and
	// published_at <= now, ordered by id.
	ListVisible(ctx context.Context, now time.Time) ([]*Post, error)
}
