package knowledge

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/metrics"
	"github.com/seo-hub/backend/pkg/logger"
)

// Collection suffixes. The configured prefix is prepended so several
// deployments can share one vector service.
const (
	collectionPatterns    = "patterns"
	collectionTrends      = "trends"
	collectionCompetitors = "competitors"
)

// Exemplar is a retrieved question/SQL pair shown to the planner.
type Exemplar struct {
	Question string  `json:"question"`
	SQL      string  `json:"sql"`
	Category string  `json:"category,omitempty"`
	Score    float32 `json:"score"`
}

// SimilarMatches groups the nearest entries from all three collections
// for one query text.
type SimilarMatches struct {
	Patterns    []Exemplar `json:"patterns"`
	Trends      []string   `json:"trends"`
	Competitors []string   `json:"competitors"`
}

// PatternStore accumulates successful query patterns, trend notes and
// competitor insights, and retrieves the nearest ones for prompt context.
// IDs are monotonic per collection and entries are never updated or
// deleted.
type PatternStore struct {
	index    Index
	embedder llm.Embedder
	prefix   string

	mu       sync.Mutex
	counters map[string]int
}

// NewPatternStore seeds each collection's ID counter from the index so
// that IDs stay monotonic across restarts of a persistent backend.
func NewPatternStore(ctx context.Context, index Index, embedder llm.Embedder, prefix string) (*PatternStore, error) {
	ps := &PatternStore{
		index:    index,
		embedder: embedder,
		prefix:   prefix,
		counters: make(map[string]int),
	}

	for _, suffix := range []string{collectionPatterns, collectionTrends, collectionCompetitors} {
		name := ps.collection(suffix)
		count, err := index.Count(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to count collection %s: %w", name, err)
		}
		ps.counters[suffix] = count
	}

	return ps, nil
}

func (ps *PatternStore) collection(suffix string) string {
	if ps.prefix == "" {
		return suffix
	}
	return ps.prefix + "_" + suffix
}

// cloneMetadata copies caller-supplied metadata so reserved keys can be
// set without mutating the caller's map.
func cloneMetadata(metadata map[string]string, reserved int) map[string]string {
	md := make(map[string]string, len(metadata)+reserved)
	for k, v := range metadata {
		md[k] = v
	}
	return md
}

func (ps *PatternStore) nextID(suffix, idPrefix string) string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.counters[suffix]++
	return fmt.Sprintf("%s_%d", idPrefix, ps.counters[suffix])
}

// embed returns nil without error when the embedding provider fails, so
// backends with a text fallback keep working.
func (ps *PatternStore) embed(ctx context.Context, text string) []float32 {
	if ps.embedder == nil {
		return nil
	}
	embedding, err := ps.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		logger.Warn("Embedding generation failed, indexing without vector", zap.Error(err))
		return nil
	}
	return embedding
}

// AddSQLPattern records a question together with the SQL that answered it.
// Extra metadata is stored alongside the reserved sql/category keys.
func (ps *PatternStore) AddSQLPattern(ctx context.Context, question, sqlText, category string, metadata map[string]string) error {
	md := cloneMetadata(metadata, 2)
	md["sql"] = sqlText
	md["category"] = category

	entry := Entry{
		ID:       ps.nextID(collectionPatterns, "sql"),
		Text:     question,
		Metadata: md,
	}

	if err := ps.index.Add(ctx, ps.collection(collectionPatterns), entry, ps.embed(ctx, question)); err != nil {
		return fmt.Errorf("failed to store sql pattern: %w", err)
	}

	metrics.PatternStoreSize.WithLabelValues(collectionPatterns).Inc()
	return nil
}

// AddTrend records an observed trend together with where and when it was
// seen.
func (ps *PatternStore) AddTrend(ctx context.Context, trend, source, date string, metadata map[string]string) error {
	md := cloneMetadata(metadata, 2)
	md["source"] = source
	md["date"] = date

	entry := Entry{
		ID:       ps.nextID(collectionTrends, "trend"),
		Text:     trend,
		Metadata: md,
	}

	if err := ps.index.Add(ctx, ps.collection(collectionTrends), entry, ps.embed(ctx, entry.Text)); err != nil {
		return fmt.Errorf("failed to store trend: %w", err)
	}

	metrics.PatternStoreSize.WithLabelValues(collectionTrends).Inc()
	return nil
}

// AddCompetitorInsight records an insight about a named competitor.
func (ps *PatternStore) AddCompetitorInsight(ctx context.Context, competitor, insight, date string, metadata map[string]string) error {
	md := cloneMetadata(metadata, 2)
	md["competitor"] = competitor
	md["date"] = date

	entry := Entry{
		ID:       ps.nextID(collectionCompetitors, "comp"),
		Text:     insight,
		Metadata: md,
	}

	if err := ps.index.Add(ctx, ps.collection(collectionCompetitors), entry, ps.embed(ctx, insight)); err != nil {
		return fmt.Errorf("failed to store competitor insight: %w", err)
	}

	metrics.PatternStoreSize.WithLabelValues(collectionCompetitors).Inc()
	return nil
}

// SimilarPatterns retrieves up to topK exemplars nearest to the question.
// Retrieval failures degrade to an empty slice; the planner can always
// proceed without exemplars.
func (ps *PatternStore) SimilarPatterns(ctx context.Context, question string, topK int) []Exemplar {
	results, err := ps.index.Search(ctx, ps.collection(collectionPatterns), question, ps.embed(ctx, question), topK)
	if err != nil {
		logger.Warn("Pattern retrieval failed", zap.Error(err))
		return nil
	}

	exemplars := make([]Exemplar, 0, len(results))
	for _, r := range results {
		exemplars = append(exemplars, Exemplar{
			Question: r.Entry.Text,
			SQL:      r.Entry.Metadata["sql"],
			Category: r.Entry.Metadata["category"],
			Score:    r.Score,
		})
	}

	return exemplars
}

// SimilarTrends retrieves trend notes related to the question.
func (ps *PatternStore) SimilarTrends(ctx context.Context, question string, topK int) []string {
	results, err := ps.index.Search(ctx, ps.collection(collectionTrends), question, ps.embed(ctx, question), topK)
	if err != nil {
		logger.Warn("Trend retrieval failed", zap.Error(err))
		return nil
	}

	trends := make([]string, 0, len(results))
	for _, r := range results {
		trends = append(trends, r.Entry.Text)
	}

	return trends
}

// SimilarInsights retrieves competitor insights related to the question.
func (ps *PatternStore) SimilarInsights(ctx context.Context, question string, topK int) []string {
	results, err := ps.index.Search(ctx, ps.collection(collectionCompetitors), question, ps.embed(ctx, question), topK)
	if err != nil {
		logger.Warn("Insight retrieval failed", zap.Error(err))
		return nil
	}

	insights := make([]string, 0, len(results))
	for _, r := range results {
		text := r.Entry.Text
		if competitor := r.Entry.Metadata["competitor"]; competitor != "" {
			text = competitor + ": " + text
		}
		insights = append(insights, text)
	}

	return insights
}

// QuerySimilar searches all three collections for the entries nearest to
// text, up to topK per collection. Like the per-collection methods it
// degrades to empty slices rather than failing.
func (ps *PatternStore) QuerySimilar(ctx context.Context, text string, topK int) SimilarMatches {
	return SimilarMatches{
		Patterns:    ps.SimilarPatterns(ctx, text, topK),
		Trends:      ps.SimilarTrends(ctx, text, topK),
		Competitors: ps.SimilarInsights(ctx, text, topK),
	}
}

func (ps *PatternStore) Close() error {
	return ps.index.Close()
}
