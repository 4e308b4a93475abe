package query

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-hub/backend/internal/executor"
	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/metrics"
	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/internal/schema"
	"github.com/seo-hub/backend/internal/store"
)

// scriptedCompleter answers the planning call first, then the explanation
// call, mirroring the two LLM round trips per question.
type scriptedCompleter struct {
	responses []string
	calls     int
}

func (s *scriptedCompleter) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp := s.responses[s.calls%len(s.responses)]
	s.calls++
	return &llm.CompletionResponse{Content: resp}, nil
}

func newTestEngine(t *testing.T, completer llm.Completer) *Engine {
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

	db, err := stores.DB(store.StoreMentions)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO keyword_rankings (keyword, model_name, answer, brand_mentioned, check_date) VALUES
		('best seo tool', 'gpt-4', 'Several tools are popular...', 1, '2026-08-20'),
		('best seo tool', 'claude', 'There are many options...', 0, '2026-08-20')`)
	require.NoError(t, err)

	catalog := schema.NewCatalog(stores, nil)
	p := planner.New(completer, catalog, nil, 5)
	e := executor.New(stores, completer)

	return NewEngine(p, e, nil)
}

func TestAskHappyPath(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		`{"category": "brand_mentions", "sql": "SELECT model_name, brand_mentioned FROM mentions.keyword_rankings", "chart_hint": "bar"}`,
		"One of two models mentioned the brand.",
	}}

	engine := newTestEngine(t, completer)

	answer, err := engine.Ask(context.Background(), "Which models mention our brand?")
	require.NoError(t, err)

	assert.NotEmpty(t, answer.ID)
	assert.Equal(t, "brand_mentions", answer.Category)
	assert.Equal(t, store.StoreMentions, answer.Store)
	assert.Len(t, answer.Rows.Rows, 2)
	assert.NotNil(t, answer.Chart)
	assert.Equal(t, "One of two models mentioned the brand.", answer.Explanation)
	assert.Equal(t, 2, completer.calls)
}

func TestAskBlankQuestion(t *testing.T) {
	engine := newTestEngine(t, &scriptedCompleter{responses: []string{"unused"}})

	_, err := engine.Ask(context.Background(), "   ")
	assert.Error(t, err)
}

func TestAskUnplannableQuestionDegrades(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"I cannot answer that."}}
	engine := newTestEngine(t, completer)

	answer, err := engine.Ask(context.Background(), "What is the meaning of life?")
	require.NoError(t, err)

	assert.NotEmpty(t, answer.Explanation)
	assert.True(t, answer.Rows.Empty())
	assert.Nil(t, answer.Chart)
	assert.Empty(t, answer.Store)
}

func TestAskRoutingFailureDegrades(t *testing.T) {
	// Valid plan shape, but the SQL spans two stores.
	completer := &scriptedCompleter{responses: []string{
		`{"category": "misc", "sql": "SELECT r.keyword FROM rankings.rankings r JOIN content.urls u ON r.url = u.url", "chart_hint": "table"}`,
	}}
	engine := newTestEngine(t, completer)

	answer, err := engine.Ask(context.Background(), "Join rankings with page data")
	require.NoError(t, err)

	assert.Contains(t, answer.Explanation, "could not be routed")
	assert.True(t, answer.Rows.Empty())
	assert.Empty(t, answer.Store)
}

type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("gateway timeout")
}

func TestAskPlanFailureMetricsSplitByCause(t *testing.T) {
	invalid := metrics.PlanValidations.WithLabelValues("invalid")
	before := testutil.ToFloat64(invalid)

	// A transport failure degrades the answer but is not a validation
	// failure.
	engine := newTestEngine(t, failingCompleter{})
	answer, err := engine.Ask(context.Background(), "Which keywords improved?")
	require.NoError(t, err)
	assert.True(t, answer.Rows.Empty())
	assert.Equal(t, before, testutil.ToFloat64(invalid))

	// A plan the model produced but that fails validation does count.
	engine = newTestEngine(t, &scriptedCompleter{responses: []string{"no plan in this text"}})
	_, err = engine.Ask(context.Background(), "Which keywords improved?")
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(invalid))
}

func TestAskAnswersAreIndependent(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		`{"category": "brand_mentions", "sql": "SELECT model_name FROM mentions.keyword_rankings", "chart_hint": "table"}`,
		"Explanation.",
	}}
	engine := newTestEngine(t, completer)
	ctx := context.Background()

	first, err := engine.Ask(ctx, "Which models answered?")
	require.NoError(t, err)
	second, err := engine.Ask(ctx, "Which models answered?")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}
