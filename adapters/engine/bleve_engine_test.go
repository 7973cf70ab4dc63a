package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/blog-search/internal/domain/search"
)

func newTestEngine(t *testing.T, docs ...search.SearchDocument) *BleveEngine {
	t.Helper()
	e, err := NewBleveEngine(DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	for _, d := range docs {
		require.NoError(t, e.Insert(context.Background(), d))
	}
	return e
}

var (
	helloDoc = search.SearchDocument{
		ID: "1", Slug: "hello", Title: "Hello World", Summary: "A greeting",
		Content: "Hello World body", Category: "notes",
	}
	gardenDoc = search.SearchDocument{
		ID: "2", Slug: "garden", Title: "Spring garden", Summary: "Planting tomatoes",
		Content: "Tomatoes need sun and a good category of soil", Category: "outdoors",
	}
)

func TestBleveEngine_QueryReportsMatchedTerms(t *testing.T) {
	e := newTestEngine(t, helloDoc, gardenDoc)

	hits, err := e.Query(context.Background(), "World", 10)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, helloDoc, hits[0].Document)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.Equal(t, []string{"world"}, hits[0].Terms[search.FieldTitle])
	assert.Equal(t, []string{"world"}, hits[0].Terms[search.FieldContent])
	assert.NotContains(t, hits[0].Terms, search.FieldSummary)
}

func TestBleveEngine_FuzzyAndPrefix(t *testing.T) {
	e := newTestEngine(t, helloDoc, gardenDoc)

	hits, err := e.Query(context.Background(), "wurld", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1", hits[0].Document.ID)
	assert.Equal(t, []string{"world"}, hits[0].Terms[search.FieldTitle])

	hits, err = e.Query(context.Background(), "categ", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2", hits[0].Document.ID)
	assert.Equal(t, []string{"category"}, hits[0].Terms[search.FieldContent])
}

func TestBleveEngine_QueryLimitAndEmpty(t *testing.T) {
	e := newTestEngine(t, helloDoc, gardenDoc)

	hits, err := e.Query(context.Background(), "xyz-nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = e.Query(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = e.Query(context.Background(), "hello tomatoes", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBleveEngine_InsertDuplicate(t *testing.T) {
	e := newTestEngine(t, helloDoc)

	err := e.Insert(context.Background(), helloDoc)

	assert.True(t, errors.Is(err, search.ErrDuplicateDocument))
	assert.Equal(t, 1, e.Count())
}

func TestBleveEngine_Remove(t *testing.T) {
	e := newTestEngine(t, helloDoc, gardenDoc)

	removed, err := e.Remove(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = e.Remove(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, removed)

	hits, err := e.Query(context.Background(), "World", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, []search.SearchDocument{gardenDoc}, e.Documents())
}

func TestBleveEngine_Documents(t *testing.T) {
	e := newTestEngine(t, gardenDoc, helloDoc)

	assert.Equal(t, []search.SearchDocument{helloDoc, gardenDoc}, e.Documents())
	assert.Equal(t, 2, e.Count())
}

func TestBleveEngine_Closed(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err := e.Query(context.Background(), "x", 10)
	assert.ErrorIs(t, err, search.ErrIndexClosed)
	assert.ErrorIs(t, e.Insert(context.Background(), helloDoc), search.ErrIndexClosed)
}
