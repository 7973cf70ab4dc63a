package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/khoahotran/blog-search/internal/domain/search"
)

// Options tunes how a term query is expanded. Zero values fall back to the
// defaults.
type Options struct {
	Fuzziness       int
	PrefixMinLength int
	Boosts          map[string]float64
}

func DefaultOptions() Options {
	return Options{
		Fuzziness:       1,
		PrefixMinLength: 3,
		Boosts: map[string]float64{
			search.FieldTitle:    3,
			search.FieldSummary:  2,
			search.FieldContent:  1,
			search.FieldCategory: 1,
		},
	}
}

var queryFields = []string{search.FieldTitle, search.FieldSummary, search.FieldContent, search.FieldCategory}

// BleveEngine is an in-memory bleve index. Original documents are kept next
// to it so hits and snapshots never depend on bleve's stored fields.
type BleveEngine struct {
	mu     sync.RWMutex
	index  bleve.Index
	docs   map[string]search.SearchDocument
	opts   Options
	closed bool
}

func NewBleveEngine(opts Options) (*BleveEngine, error) {
	def := DefaultOptions()
	if opts.Fuzziness < 0 {
		opts.Fuzziness = 0
	}
	if opts.PrefixMinLength <= 0 {
		opts.PrefixMinLength = def.PrefixMinLength
	}
	if opts.Boosts == nil {
		opts.Boosts = def.Boosts
	}

	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveEngine{
		index: idx,
		docs:  make(map[string]search.SearchDocument),
		opts:  opts,
	}, nil
}

// NewFactory returns a search.EngineFactory producing engines with opts.
func NewFactory(opts Options) search.EngineFactory {
	return func() (search.Engine, error) {
		return NewBleveEngine(opts)
	}
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = false
	text.IncludeTermVectors = true

	doc := bleve.NewDocumentStaticMapping()
	for _, f := range queryFields {
		doc.AddFieldMappingsAt(f, text)
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

func (e *BleveEngine) Insert(ctx context.Context, doc search.SearchDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return search.ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := e.docs[doc.ID]; ok {
		return fmt.Errorf("%w: %s", search.ErrDuplicateDocument, doc.ID)
	}

	if err := e.index.Index(doc.ID, indexedFields(doc)); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	e.docs[doc.ID] = doc
	return nil
}

func (e *BleveEngine) Remove(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false, search.ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, ok := e.docs[id]; !ok {
		return false, nil
	}

	if err := e.index.Delete(id); err != nil {
		return false, fmt.Errorf("delete document %s: %w", id, err)
	}
	delete(e.docs, id)
	return true, nil
}

func (e *BleveEngine) Query(ctx context.Context, term string, limit int) ([]search.Hit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, search.ErrIndexClosed
	}
	if limit <= 0 {
		return []search.Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(e.buildQuery(term), limit, 0, false)
	req.IncludeLocations = true
	req.SortBy([]string{"-_score", "_id"})

	res, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]search.Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		doc, ok := e.docs[h.ID]
		if !ok {
			continue
		}
		terms := make(map[string][]string, len(h.Locations))
		for field, termLocations := range h.Locations {
			first := make(map[string]uint64, len(termLocations))
			for t, locs := range termLocations {
				pos := ^uint64(0)
				for _, l := range locs {
					pos = min(pos, l.Start)
				}
				first[t] = pos
			}
			ordered := make([]string, 0, len(first))
			for t := range first {
				ordered = append(ordered, t)
			}
			sort.Slice(ordered, func(i, j int) bool {
				if first[ordered[i]] != first[ordered[j]] {
					return first[ordered[i]] < first[ordered[j]]
				}
				return ordered[i] < ordered[j]
			})
			terms[field] = ordered
		}
		hits = append(hits, search.Hit{Document: doc, Score: h.Score, Terms: terms})
	}
	return hits, nil
}

// buildQuery ORs a fuzzy match per field with prefix queries for the
// longer query tokens, so "categ" still finds "category".
func (e *BleveEngine) buildQuery(term string) query.Query {
	dq := bleve.NewDisjunctionQuery()
	tokens := prefixTokens(term, e.opts.PrefixMinLength)

	for _, field := range queryFields {
		boost := e.opts.Boosts[field]
		if boost <= 0 {
			boost = 1
		}

		mq := bleve.NewMatchQuery(term)
		mq.SetField(field)
		mq.SetFuzziness(e.opts.Fuzziness)
		mq.SetBoost(boost)
		dq.AddQuery(mq)

		for _, tok := range tokens {
			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(field)
			pq.SetBoost(boost / 2)
			dq.AddQuery(pq)
		}
	}
	return dq
}

func prefixTokens(term string, minLen int) []string {
	fields := strings.FieldsFunc(strings.ToLower(term), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			out = append(out, f)
		}
	}
	return out
}

func indexedFields(doc search.SearchDocument) map[string]interface{} {
	return map[string]interface{}{
		search.FieldTitle:    doc.Title,
		search.FieldSummary:  doc.Summary,
		search.FieldContent:  doc.Content,
		search.FieldCategory: doc.Category,
	}
}

func (e *BleveEngine) Documents() []search.SearchDocument {
	e.mu.RLock()
	defer e.mu.RUnlock()

	docs := make([]search.SearchDocument, 0, len(e.docs))
	for _, d := range e.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (e *BleveEngine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Close releases the bleve index. Calling it twice is a no-op.
func (e *BleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.index.Close()
}
