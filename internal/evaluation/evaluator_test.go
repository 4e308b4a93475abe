package evaluation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-hub/backend/internal/planner"
)

type fakePlanner struct {
	plans map[string]*planner.Plan
}

func (f *fakePlanner) CreatePlan(_ context.Context, question string) (*planner.Plan, error) {
	plan, ok := f.plans[question]
	if !ok {
		return nil, errors.New("no plan")
	}
	return plan, nil
}

func TestRunScoresRoutingAndFragments(t *testing.T) {
	p := &fakePlanner{plans: map[string]*planner.Plan{
		"top domains": {SQL: "SELECT domain, AVG(position) FROM rankings.rankings GROUP BY domain"},
		"page count":  {SQL: "SELECT COUNT(*) FROM mentions.keyword_rankings"},
	}}

	dataset := &Dataset{Items: []DatasetItem{
		{
			Question:          "top domains",
			ExpectedStore:     "rankings",
			ExpectedFragments: []string{"avg(position)", "group by domain"},
		},
		{
			// Planner routed this to the wrong store and misses a fragment.
			Question:          "page count",
			ExpectedStore:     "content",
			ExpectedFragments: []string{"count(*)", "content.urls"},
		},
		{
			Question:      "unknown question",
			ExpectedStore: "rankings",
		},
	}}

	report, err := NewEvaluator(p).Run(context.Background(), dataset)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalQuestions)
	assert.Equal(t, 1, report.PlanFailures)
	assert.Equal(t, 1, report.CorrectRoutings)
	assert.InDelta(t, 33.3, report.RoutingAccuracy, 0.1)
	// 3 of 4 fragments matched across the two planned items.
	assert.InDelta(t, 75.0, report.FragmentRecall, 0.1)

	formatted := report.Format()
	assert.Contains(t, formatted, "Routing Accuracy: 33.3%")
	assert.Contains(t, formatted, "FAIL  unknown question")
	assert.Contains(t, formatted, "MISS  page count -> mentions")
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"items": [
			{"question": "q", "expected_store": "rankings", "expected_fragments": ["position"]}
		]
	}`), 0o644))

	dataset, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, dataset.Items, 1)
	assert.Equal(t, "rankings", dataset.Items[0].ExpectedStore)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
