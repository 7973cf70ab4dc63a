package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/blog-search/internal/domain/search"
)

type PostEventType string

const (
	PostEventTypeCreated PostEventType = "created"
	PostEventTypeUpdated PostEventType = "updated"
	PostEventTypeDeleted PostEventType = "deleted"
)

// PostEventPayload is emitted by the CMS on post.events.
type PostEventPayload struct {
	EventType PostEventType `json:"event_type"`
	PostID    int64         `json:"post_id"`
}

type IndexEventPayload struct {
	EventID    uuid.UUID             `json:"event_id"`
	EventType  search.IndexEventType `json:"event_type"`
	DocumentID string                `json:"document_id,omitempty"`
	Indexed    int                   `json:"indexed,omitempty"`
	Source     string                `json:"source"`
	OccurredAt time.Time             `json:"occurred_at"`
}
