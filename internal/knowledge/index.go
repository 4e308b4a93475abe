package knowledge

import "context"

// Entry is one stored exemplar, trend or insight.
type Entry struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// SearchResult pairs an entry with its similarity score (higher is closer).
type SearchResult struct {
	Entry Entry
	Score float32
}

// Index is the similarity backend behind the pattern store. MemoryIndex is
// the default; MilvusIndex is used when an external vector service is
// configured.
type Index interface {
	// Add stores an entry under a collection. embedding may be nil when
	// the embedding provider was unavailable; backends that cannot index
	// without one return an error.
	Add(ctx context.Context, collection string, entry Entry, embedding []float32) error

	// Search returns up to topK entries most similar to the query.
	Search(ctx context.Context, collection string, query string, embedding []float32, topK int) ([]SearchResult, error)

	// Count reports how many entries a collection holds.
	Count(ctx context.Context, collection string) (int, error)

	Close() error
}
