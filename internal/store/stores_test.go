package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStores(t *testing.T) *Stores {
	t.Helper()

	dir := t.TempDir()
	s, err := Open(Paths{
		Rankings: filepath.Join(dir, "rankings.db"),
		Content:  filepath.Join(dir, "urls_analysis.db"),
		Mentions: filepath.Join(dir, "aimodels.db"),
	}, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.InitSchemas())
	return s
}

func TestInitSchemasIdempotent(t *testing.T) {
	s := openTestStores(t)

	// Running the bootstrap again must not fail or change anything.
	require.NoError(t, s.InitSchemas())

	tables, err := s.Tables(context.Background(), StoreRankings)
	require.NoError(t, err)
	assert.Contains(t, tables, "keywords")
	assert.Contains(t, tables, "rankings")
}

func TestQueryReturnsRows(t *testing.T) {
	s := openTestStores(t)
	ctx := context.Background()

	db, err := s.DB(StoreRankings)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO keywords (keyword) VALUES ('seo audit')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO rankings (keyword_id, keyword, domain, position, check_date)
		VALUES (1, 'seo audit', 'example.com', 3, '2026-08-01')`)
	require.NoError(t, err)

	rs, err := s.Query(ctx, StoreRankings, "SELECT keyword, position FROM rankings")
	require.NoError(t, err)
	require.Equal(t, []string{"keyword", "position"}, rs.Columns)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "seo audit", rs.Rows[0][0])
	assert.Equal(t, int64(3), rs.Rows[0][1])
}

func TestQueryUnknownTableFails(t *testing.T) {
	s := openTestStores(t)

	_, err := s.Query(context.Background(), StoreContent, "SELECT * FROM nonexistent")
	assert.Error(t, err)
}

func TestQueryIsolationBetweenStores(t *testing.T) {
	s := openTestStores(t)
	ctx := context.Background()

	// keywords lives in the rankings store only.
	_, err := s.Query(ctx, StoreContent, "SELECT * FROM keywords")
	assert.Error(t, err)

	_, err = s.Query(ctx, StoreRankings, "SELECT * FROM keywords")
	assert.NoError(t, err)
}

func TestStructureChecksumChangesWithDDL(t *testing.T) {
	s := openTestStores(t)
	ctx := context.Background()

	before := s.StructureChecksum(ctx)
	assert.Equal(t, before, s.StructureChecksum(ctx))

	db, err := s.DB(StoreMentions)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE extra (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	assert.NotEqual(t, before, s.StructureChecksum(ctx))
}

func TestResultSetSummary(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"domain", "position"},
		Rows: [][]any{
			{"example.com", int64(1)},
			{"example.org", int64(5)},
			{"example.net", nil},
		},
	}

	summary := rs.Summary()
	assert.Contains(t, summary, "3 rows, 2 columns")
	assert.Contains(t, summary, "position: count=2 min=1.00 max=5.00 mean=3.00")

	empty := &ResultSet{Columns: []string{"a"}}
	assert.Equal(t, "No data available", empty.Summary())
}

func TestResultSetFormatSample(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"keyword", "position"},
		Rows: [][]any{
			{"seo audit", int64(3)},
			{"link building", int64(7)},
		},
	}

	out := rs.FormatSample(1)
	assert.Contains(t, out, "keyword | position")
	assert.Contains(t, out, "seo audit | 3")
	assert.NotContains(t, out, "link building")
}
