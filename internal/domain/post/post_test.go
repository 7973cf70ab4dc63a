package post

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPost_IsVisible(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		post Post
		want bool
	}{
		{name: "published in the past", post: Post{Status: StatusPublished, PublishedAt: &past}, want: true},
		{name: "published exactly now", post: Post{Status: StatusPublished, PublishedAt: &now}, want: true},
		{name: "scheduled", post: Post{Status: StatusPublished, PublishedAt: &future}, want: false},
		{name: "published without date", post: Post{Status: StatusPublished}, want: false},
		{name: "draft", post: Post{Status: StatusDraft, PublishedAt: &past}, want: false},
		{name: "archived", post: Post{Status: StatusArchived, PublishedAt: &past}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.IsVisible(now))
		})
	}
}
