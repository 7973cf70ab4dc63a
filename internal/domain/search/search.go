package search

import (
	"context"
	"errors"
)

const (
	FieldTitle    = "title"
	FieldSummary  = "summary"
	FieldContent  = "content"
	FieldCategory = "category"
)

// MaxLimit is the hard ceiling on results per query.
const MaxLimit = 25

var (
	ErrDuplicateDocument = errors.New("document already indexed")
	ErrIndexClosed       = errors.New("index is closed")
)

// SearchDocument is the projection of a published post kept in the index.
// ID is the decimal form of the post id.
type SearchDocument struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Hit is one raw engine result. Terms maps a field name to the index terms
// the engine matched in it, ordered by first occurrence; a field may be
// missing.
type Hit struct {
	Document SearchDocument
	Score    float64
	Terms    map[string][]string
}

type PostProjection struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// Matches holds highlighted HTML fragments; nil means the field was blank.
type Matches struct {
	Title          *string `json:"title"`
	Summary        *string `json:"summary"`
	ContentSnippet *string `json:"contentSnippet"`
}

type QueryResult struct {
	Post    PostProjection `json:"post"`
	Score   float64        `json:"score"`
	Matches Matches        `json:"matches"`
}

// Engine is the text-index capability. Implementations must be safe for
// concurrent use.
type Engine interface {
	// Insert adds doc and fails with ErrDuplicateDocument if its id is live.
	Insert(ctx context.Context, doc SearchDocument) error
	// Remove deletes the document with id and reports whether one existed.
	Remove(ctx context.Context, id string) (bool, error)
	Query(ctx context.Context, term string, limit int) ([]Hit, error)
	// Documents returns every live document ordered by id.
	Documents() []SearchDocument
	Count() int
	Close() error
}

// EngineFactory builds empty engines.
type EngineFactory func() (Engine, error)

// SnapshotStore persists the whole index as one opaque blob. Load returns
// nil data and no error when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type IndexEventType string

const (
	IndexEventUpserted IndexEventType = "upserted"
	IndexEventDeleted  IndexEventType = "deleted"
	IndexEventRebuilt  IndexEventType = "rebuilt"
)

// IndexEvent announces that a process persisted a new snapshot.
// Source identifies the publishing process so it can skip its own events.
type IndexEvent struct {
	Type       IndexEventType
	DocumentID string
	Indexed    int
	Source     string
}

type EventPublisher interface {
	PublishIndexEvent(ctx context.Context, e IndexEvent) error
}
