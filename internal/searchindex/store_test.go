package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/blog-search/adapters/engine"
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/pkg/logger"
)

type memorySnapshots struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	loadErr error
	saveErr error

	// when set, the next Load reads the data, signals loading and then
	// waits for release before returning.
	loading chan struct{}
	release chan struct{}
}

func (m *memorySnapshots) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	if m.loadErr != nil {
		m.mu.Unlock()
		return nil, m.loadErr
	}
	data := m.data
	loading, release := m.loading, m.release
	m.loading, m.release = nil, nil
	m.mu.Unlock()

	if loading != nil {
		close(loading)
		<-release
	}
	return data, nil
}

func (m *memorySnapshots) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *memorySnapshots) documents(t *testing.T) []search.SearchDocument {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var snap snapshot
	require.NoError(t, json.Unmarshal(m.data, &snap))
	assert.Equal(t, snapshotVersion, snap.Version)
	return snap.Documents
}

func newTestStore(snapshots *memorySnapshots) *Store {
	return NewStore(engine.NewFactory(engine.DefaultOptions()), snapshots, logger.NewNop())
}

func doc(id, title string) search.SearchDocument {
	return search.SearchDocument{ID: id, Slug: "post-" + id, Title: title, Content: title + " body"}
}

func TestStore_EmptyWhenNoSnapshot(t *testing.T) {
	store := newTestStore(&memorySnapshots{})

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	hits, err := store.Query(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_LoadsExistingSnapshot(t *testing.T) {
	data, err := Encode([]search.SearchDocument{doc("1", "Hello World"), doc("2", "Garden notes")})
	require.NoError(t, err)
	store := newTestStore(&memorySnapshots{data: data})

	hits, err := store.Query(context.Background(), "garden", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2", hits[0].Document.ID)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_LoadErrors(t *testing.T) {
	boom := errors.New("redis down")
	store := newTestStore(&memorySnapshots{loadErr: boom})
	_, err := store.Query(context.Background(), "x", 10)
	assert.ErrorIs(t, err, boom)

	store = newTestStore(&memorySnapshots{data: []byte("{not json")})
	_, err = store.Count(context.Background())
	assert.Error(t, err)

	store = newTestStore(&memorySnapshots{data: []byte(`{"version":99,"documents":[]}`)})
	_, err = store.Count(context.Background())
	assert.ErrorContains(t, err, "unsupported index snapshot version 99")
}

func TestStore_UpdatePersists(t *testing.T) {
	snaps := &memorySnapshots{}
	store := newTestStore(snaps)

	err := store.Update(context.Background(), func(w Writer) error {
		return w.Insert(context.Background(), doc("1", "Hello World"))
	})
	require.NoError(t, err)
	assert.Equal(t, []search.SearchDocument{doc("1", "Hello World")}, snaps.documents(t))

	var removed bool
	err = store.Update(context.Background(), func(w Writer) error {
		var err error
		removed, err = w.RemoveIfPresent(context.Background(), "1")
		return err
	})
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, snaps.documents(t))
	assert.Equal(t, 2, snaps.saves)
}

func TestStore_UpdateFailureSkipsPersist(t *testing.T) {
	snaps := &memorySnapshots{}
	store := newTestStore(snaps)
	boom := errors.New("boom")

	err := store.Update(context.Background(), func(w Writer) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, snaps.saves)
}

func TestStore_SaveFailureSurfaces(t *testing.T) {
	boom := errors.New("disk full")
	store := newTestStore(&memorySnapshots{saveErr: boom})

	err := store.Update(context.Background(), func(w Writer) error {
		return w.Insert(context.Background(), doc("1", "Hello"))
	})
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, store.Persist(context.Background()), boom)
}

func TestStore_ConcurrentUpdatesAllPersisted(t *testing.T) {
	snaps := &memorySnapshots{}
	store := newTestStore(snaps)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Update(context.Background(), func(w Writer) error {
				return w.Insert(context.Background(), doc(fmt.Sprint(id), "Post"))
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, snaps.documents(t), 20)
}

func TestStore_SwapReplacesHandle(t *testing.T) {
	snaps := &memorySnapshots{}
	store := newTestStore(snaps)
	require.NoError(t, store.Update(context.Background(), func(w Writer) error {
		return w.Insert(context.Background(), doc("1", "Old post"))
	}))

	next, err := store.NewHandle()
	require.NoError(t, err)
	require.NoError(t, next.Insert(context.Background(), doc("2", "New post")))

	hits, err := store.Query(context.Background(), "new", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "detached handle must stay invisible")

	require.NoError(t, store.Swap(context.Background(), next))

	hits, err = store.Query(context.Background(), "post", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2", hits[0].Document.ID)
	assert.Equal(t, []search.SearchDocument{doc("2", "New post")}, snaps.documents(t))
}

func TestStore_Reload(t *testing.T) {
	snaps := &memorySnapshots{}
	store := newTestStore(snaps)
	_, err := store.Count(context.Background())
	require.NoError(t, err)

	other := newTestStore(snaps)
	require.NoError(t, other.Update(context.Background(), func(w Writer) error {
		return w.Insert(context.Background(), doc("7", "From elsewhere"))
	}))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, store.Reload(context.Background()))
	count, err = store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_UpdateDuringReloadIsKept(t *testing.T) {
	snaps := &memorySnapshots{}
	store := newTestStore(snaps)
	_, err := store.Count(context.Background())
	require.NoError(t, err)

	snaps.mu.Lock()
	snaps.loading = make(chan struct{})
	snaps.release = make(chan struct{})
	loading, release := snaps.loading, snaps.release
	snaps.mu.Unlock()

	reloaded := make(chan error, 1)
	go func() { reloaded <- store.Reload(context.Background()) }()
	<-loading

	updated := make(chan error, 1)
	go func() {
		updated <- store.Update(context.Background(), func(w Writer) error {
			return w.Insert(context.Background(), doc("1", "Written during reload"))
		})
	}()

	select {
	case err := <-updated:
		t.Fatalf("update finished while reload was loading: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-reloaded)
	require.NoError(t, <-updated)

	require.NoError(t, store.Update(context.Background(), func(w Writer) error {
		return w.Insert(context.Background(), doc("2", "Written after reload"))
	}))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, snaps.documents(t), 2)
}

func TestEncode_EmptyDocuments(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"documents":[]}`, string(data))
}
