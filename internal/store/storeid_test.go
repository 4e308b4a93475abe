package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectStores(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []StoreID
	}{
		{
			name: "single store",
			sql:  "SELECT keyword, position FROM rankings.rankings WHERE domain = 'example.com'",
			want: []StoreID{StoreRankings},
		},
		{
			name: "legacy content alias",
			sql:  "SELECT url FROM urls_analysis.urls WHERE status = 'Analyzed'",
			want: []StoreID{StoreContent},
		},
		{
			name: "legacy mentions alias",
			sql:  "SELECT keyword FROM aimodels.keyword_rankings",
			want: []StoreID{StoreMentions},
		},
		{
			name: "canonical and legacy alias resolve to one store",
			sql:  "SELECT a.url FROM content.urls a JOIN urls_analysis.urls b ON a.id = b.id",
			want: []StoreID{StoreContent},
		},
		{
			name: "case insensitive",
			sql:  "SELECT * FROM RANKINGS.keywords",
			want: []StoreID{StoreRankings},
		},
		{
			name: "no prefix",
			sql:  "SELECT keyword FROM keywords",
			want: nil,
		},
		{
			name: "multiple stores",
			sql:  "SELECT r.keyword FROM rankings.rankings r JOIN content.urls u ON r.url = u.url",
			want: []StoreID{StoreContent, StoreRankings},
		},
		{
			name: "prefix inside longer identifier does not match",
			sql:  "SELECT * FROM historical_rankings.snapshots",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectStores(tt.sql))
		})
	}
}

func TestStripPrefixes(t *testing.T) {
	sql := "SELECT keyword FROM rankings.rankings JOIN rankings.keywords ON 1=1"
	assert.Equal(t, "SELECT keyword FROM rankings JOIN keywords ON 1=1", StripPrefixes(sql, StoreRankings))

	sql = "SELECT url FROM content.urls UNION SELECT url FROM urls_analysis.urls"
	assert.Equal(t, "SELECT url FROM urls UNION SELECT url FROM urls", StripPrefixes(sql, StoreContent))

	// Prefixes of other stores are left alone.
	sql = "SELECT * FROM mentions.keyword_rankings"
	assert.Equal(t, sql, StripPrefixes(sql, StoreRankings))
}

func TestPrefixHelpers(t *testing.T) {
	assert.Equal(t, []StoreID{StoreContent, StoreMentions, StoreRankings}, AllStoreIDs())
	assert.Contains(t, AllPrefixes(), "urls_analysis.")
	assert.Equal(t, []string{"content.", "urls_analysis."}, PrefixesFor(StoreContent))
}
