package store

import (
	"regexp"
	"sort"
)

// StoreID names one of the three logical stores. Generated SQL references
// tables as <prefix>.<table>; the prefix decides which physical database a
// statement runs against, and a single statement must resolve to exactly one
// store.
type StoreID string

const (
	StoreRankings StoreID = "rankings"
	StoreContent  StoreID = "content"
	StoreMentions StoreID = "mentions"
)

// prefixTokens maps each store to the dotted prefixes it is addressed by in
// generated SQL. The content and mentions stores keep their legacy database
// names as aliases because the seeded exemplars still use them.
var prefixTokens = map[StoreID][]string{
	StoreRankings: {"rankings."},
	StoreContent:  {"content.", "urls_analysis."},
	StoreMentions: {"mentions.", "aimodels."},
}

var prefixPatterns = compilePrefixPatterns()

func compilePrefixPatterns() map[StoreID][]*regexp.Regexp {
	patterns := make(map[StoreID][]*regexp.Regexp, len(prefixTokens))
	for id, tokens := range prefixTokens {
		for _, token := range tokens {
			// Whole-word match: "rankings." must not fire inside
			// "historical_rankings.".
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(token))
			patterns[id] = append(patterns[id], re)
		}
	}
	return patterns
}

// AllStoreIDs returns the store identifiers in a stable order.
func AllStoreIDs() []StoreID {
	ids := make([]StoreID, 0, len(prefixTokens))
	for id := range prefixTokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PrefixesFor returns the dotted prefixes recognized for a store.
func PrefixesFor(id StoreID) []string {
	return append([]string(nil), prefixTokens[id]...)
}

// AllPrefixes returns every recognized dotted prefix across all stores.
func AllPrefixes() []string {
	var all []string
	for _, id := range AllStoreIDs() {
		all = append(all, prefixTokens[id]...)
	}
	return all
}

// DetectStores scans a SQL statement for recognized store prefixes and
// returns the distinct stores referenced, in stable order.
func DetectStores(sqlText string) []StoreID {
	var found []StoreID
	for _, id := range AllStoreIDs() {
		for _, re := range prefixPatterns[id] {
			if re.MatchString(sqlText) {
				found = append(found, id)
				break
			}
		}
	}
	return found
}

// StripPrefixes removes every recognized prefix belonging to id from the SQL
// text, leaving bare table names the store can resolve locally.
func StripPrefixes(sqlText string, id StoreID) string {
	out := sqlText
	for _, re := range prefixPatterns[id] {
		out = re.ReplaceAllString(out, "")
	}
	return out
}
