package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-hub/backend/internal/knowledge"
	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/schema"
	"github.com/seo-hub/backend/internal/store"
)

type fakeCompleter struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastPrompt = req.UserPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.response}, nil
}

type fakeExemplars struct {
	exemplars []knowledge.Exemplar
}

func (f *fakeExemplars) SimilarPatterns(context.Context, string, int) []knowledge.Exemplar {
	return f.exemplars
}

func newTestCatalog(t *testing.T) *schema.Catalog {
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

	return schema.NewCatalog(stores, nil)
}

func TestCreatePlan(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"category": "rankings_trend", "sql": "SELECT check_date, position FROM rankings.rankings", "chart_hint": "line"}`,
	}

	p := New(completer, newTestCatalog(t), nil, 5)

	plan, err := p.CreatePlan(context.Background(), "How did our positions move this month?")
	require.NoError(t, err)
	assert.Equal(t, "rankings_trend", plan.Category)
	assert.Equal(t, ChartLine, plan.ChartHint)

	// The prompt carries the schema, the rules and the question.
	assert.Contains(t, completer.lastPrompt, "Table rankings.rankings")
	assert.Contains(t, completer.lastPrompt, "urls_analysis.")
	assert.Contains(t, completer.lastPrompt, "How did our positions move this month?")
}

func TestCreatePlanIncludesExemplars(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"sql": "SELECT 1 FROM rankings.keywords"}`,
	}
	exemplars := &fakeExemplars{
		exemplars: []knowledge.Exemplar{
			{Question: "Top domains?", SQL: "SELECT domain FROM rankings.rankings LIMIT 10"},
		},
	}

	p := New(completer, newTestCatalog(t), exemplars, 5)

	_, err := p.CreatePlan(context.Background(), "Which domains rank best?")
	require.NoError(t, err)
	assert.Contains(t, completer.lastPrompt, "Top domains?")
	assert.Contains(t, completer.lastPrompt, "SELECT domain FROM rankings.rankings LIMIT 10")
}

func TestCreatePlanInvalidResponse(t *testing.T) {
	completer := &fakeCompleter{response: "I cannot help with that."}

	p := New(completer, newTestCatalog(t), nil, 5)

	_, err := p.CreatePlan(context.Background(), "anything")
	require.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreatePlanCompleterError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model unreachable")}

	p := New(completer, newTestCatalog(t), nil, 5)

	_, err := p.CreatePlan(context.Background(), "anything")
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}
