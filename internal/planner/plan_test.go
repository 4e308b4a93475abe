package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlanResponseStrictJSON(t *testing.T) {
	raw := `{"category": "rankings_trend", "sql": "SELECT keyword FROM rankings.rankings", "context_notes": "last 30 days", "chart_hint": "line"}`

	plan := parsePlanResponse(raw)
	assert.Equal(t, "rankings_trend", plan.Category)
	assert.Equal(t, "SELECT keyword FROM rankings.rankings", plan.SQL)
	assert.Equal(t, "last 30 days", plan.ContextNotes)
	assert.Equal(t, ChartLine, plan.ChartHint)
}

func TestParsePlanResponseFencedJSON(t *testing.T) {
	raw := "Here is the plan:\n```json\n{\"category\": \"content_audit\", \"sql\": \"SELECT url FROM content.urls\", \"chart_hint\": \"bar\"}\n```\nLet me know if you need anything else."

	plan := parsePlanResponse(raw)
	assert.Equal(t, "content_audit", plan.Category)
	assert.Equal(t, "SELECT url FROM content.urls", plan.SQL)
	assert.Equal(t, ChartBar, plan.ChartHint)
}

func TestParsePlanResponseSurroundingProse(t *testing.T) {
	raw := `Sure! {"category": "brand_mentions", "sql": "SELECT keyword FROM mentions.keyword_rankings", "chart_hint": "table"} Hope that helps.`

	plan := parsePlanResponse(raw)
	assert.Equal(t, "brand_mentions", plan.Category)
	assert.Equal(t, ChartTable, plan.ChartHint)
}

func TestParsePlanResponseLineFallback(t *testing.T) {
	raw := "category: rankings_trend\nsql: SELECT domain, AVG(position) FROM rankings.rankings GROUP BY domain\nchart: bar"

	plan := parsePlanResponse(raw)
	assert.Equal(t, "rankings_trend", plan.Category)
	assert.Equal(t, "SELECT domain, AVG(position) FROM rankings.rankings GROUP BY domain", plan.SQL)
	assert.Equal(t, ChartBar, plan.ChartHint)
}

func TestParsePlanResponseGarbage(t *testing.T) {
	plan := parsePlanResponse("I am not able to answer that question.")
	assert.Empty(t, plan.SQL)
	assert.Error(t, plan.Validate())
}

func TestParsePlanResponseMalformedJSONFallsBack(t *testing.T) {
	// Broken JSON, but the line heuristic can still recover the SQL.
	raw := "{\"category\": \"rankings\",\nsql: SELECT keyword FROM rankings.keywords"

	plan := parsePlanResponse(raw)
	assert.Equal(t, "SELECT keyword FROM rankings.keywords", plan.SQL)
}

func TestNormalizeChartHint(t *testing.T) {
	assert.Equal(t, ChartLine, NormalizeChartHint("Line"))
	assert.Equal(t, ChartScatter, NormalizeChartHint(" scatter "))
	assert.Equal(t, ChartNone, NormalizeChartHint("none"))
	assert.Equal(t, ChartTable, NormalizeChartHint(""))
	assert.Equal(t, ChartTable, NormalizeChartHint("pie"))
}

func TestPlanValidate(t *testing.T) {
	plan := &Plan{SQL: "SELECT keyword FROM rankings.keywords"}
	assert.NoError(t, plan.Validate())

	plan = &Plan{Category: "rankings", SQL: "   "}
	err := plan.Validate()
	assert.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)

	// Syntactically fine, but no store prefix to route on.
	plan = &Plan{SQL: "SELECT keyword FROM keywords"}
	err = plan.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rankings.")
}
