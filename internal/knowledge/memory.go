package knowledge

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

type memoryRecord struct {
	entry     Entry
	embedding []float32
	tokens    map[string]struct{}
}

// MemoryIndex is an in-process similarity index. When both sides carry an
// embedding it ranks by cosine similarity; otherwise it falls back to
// keyword overlap over tokenized text, so the pattern store stays useful
// even when the embedding provider is down.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string][]memoryRecord
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		collections: make(map[string][]memoryRecord),
	}
}

func (m *MemoryIndex) Add(_ context.Context, collection string, entry Entry, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections[collection] = append(m.collections[collection], memoryRecord{
		entry:     entry,
		embedding: embedding,
		tokens:    tokenize(entry.Text),
	})

	return nil
}

func (m *MemoryIndex) Search(_ context.Context, collection string, query string, embedding []float32, topK int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.collections[collection]
	if len(records) == 0 || topK <= 0 {
		return nil, nil
	}

	queryTokens := tokenize(query)

	results := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		var score float32
		if embedding != nil && rec.embedding != nil {
			score = cosineSimilarity(embedding, rec.embedding)
		} else {
			score = keywordOverlap(queryTokens, rec.tokens)
		}
		results = append(results, SearchResult{Entry: rec.entry, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

func (m *MemoryIndex) Count(_ context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}

func (m *MemoryIndex) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// keywordOverlap is the Jaccard index over the two token sets.
func keywordOverlap(query, doc map[string]struct{}) float32 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}

	shared := 0
	for tok := range query {
		if _, ok := doc[tok]; ok {
			shared++
		}
	}

	union := len(query) + len(doc) - shared
	return float32(shared) / float32(union)
}

// tokenize lowercases the prose tokens of the text, dropping punctuation
// and short stop-like tokens. Falls back to whitespace splitting if the
// tokenizer rejects the input.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})

	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		for _, f := range strings.Fields(strings.ToLower(text)) {
			if len(f) > 2 {
				tokens[f] = struct{}{}
			}
		}
		return tokens
	}

	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if len(word) <= 2 || !isWordToken(word) {
			continue
		}
		tokens[word] = struct{}{}
	}

	return tokens
}

func isWordToken(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}
