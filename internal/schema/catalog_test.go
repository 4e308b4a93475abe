package schema

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-hub/backend/internal/store"
)

type fakeDescriptionCache struct {
	entries map[string]string
	hits    int
}

func (f *fakeDescriptionCache) GetSchemaDescription(_ context.Context, checksum string) (string, bool, error) {
	v, ok := f.entries[checksum]
	if ok {
		f.hits++
	}
	return v, ok, nil
}

func (f *fakeDescriptionCache) SetSchemaDescription(_ context.Context, checksum, description string, _ time.Duration) error {
	f.entries[checksum] = description
	return nil
}

func openTestStores(t *testing.T) *store.Stores {
	t.Helper()

	dir := t.TempDir()
	stores, err := store.Open(store.Paths{
		Rankings: filepath.Join(dir, "rankings.db"),
		Content:  filepath.Join(dir, "content.db"),
		Mentions: filepath.Join(dir, "mentions.db"),
	}, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	require.NoError(t, stores.InitSchemas())

	return stores
}

func TestDescribeListsAllStores(t *testing.T) {
	catalog := NewCatalog(openTestStores(t), nil)

	desc := catalog.Describe(context.Background())

	assert.Contains(t, desc, `## Store "rankings" (prefix: rankings.)`)
	assert.Contains(t, desc, `## Store "content" (prefix: content.)`)
	assert.Contains(t, desc, `## Store "mentions" (prefix: mentions.)`)

	assert.Contains(t, desc, "Table rankings.keywords:")
	assert.Contains(t, desc, "Table rankings.rankings:")
	assert.Contains(t, desc, "Table content.urls:")
	assert.Contains(t, desc, "Table mentions.keyword_rankings:")

	// Column detail with key and reference annotations.
	assert.Contains(t, desc, "id INTEGER PRIMARY KEY")
	assert.Contains(t, desc, "keyword_id INTEGER NOT NULL REFERENCES rankings.keywords(id)")
}

func TestDescribeUsesCache(t *testing.T) {
	cache := &fakeDescriptionCache{entries: make(map[string]string)}
	catalog := NewCatalog(openTestStores(t), cache)
	ctx := context.Background()

	first := catalog.Describe(ctx)
	second := catalog.Describe(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
}

func TestDescribeCacheKeyTracksDDL(t *testing.T) {
	cache := &fakeDescriptionCache{entries: make(map[string]string)}
	stores := openTestStores(t)
	catalog := NewCatalog(stores, cache)
	ctx := context.Background()

	before := catalog.Describe(ctx)

	db, err := stores.DB(store.StoreContent)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE backlinks (id INTEGER PRIMARY KEY, source_url TEXT)")
	require.NoError(t, err)

	after := catalog.Describe(ctx)
	assert.NotEqual(t, before, after)
	assert.Contains(t, after, "Table content.backlinks:")
}

func TestDescribeRendersPartialOnUnreachableStore(t *testing.T) {
	stores := openTestStores(t)
	catalog := NewCatalog(stores, nil)

	db, err := stores.DB(store.StoreContent)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	desc := catalog.Describe(context.Background())

	// The healthy stores still render in full.
	assert.Contains(t, desc, "Table rankings.rankings:")
	assert.Contains(t, desc, "Table mentions.keyword_rankings:")

	// The dead store keeps its section with an inline note.
	assert.Contains(t, desc, `## Store "content" (prefix: content.)`)
	assert.Contains(t, desc, "(schema unavailable:")
	assert.NotContains(t, desc, "Table content.urls:")
}

func TestGuidelinesMentionPrefixRules(t *testing.T) {
	g := Guidelines()
	assert.Contains(t, g, "rankings.")
	assert.Contains(t, g, "urls_analysis.")
	assert.Contains(t, g, "ONE store only")
}
