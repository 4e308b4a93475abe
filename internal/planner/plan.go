package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seo-hub/backend/internal/store"
)

// ChartHint tells the caller which visualization fits the result shape.
type ChartHint string

const (
	ChartLine    ChartHint = "line"
	ChartBar     ChartHint = "bar"
	ChartScatter ChartHint = "scatter"
	ChartTable   ChartHint = "table"
	ChartNone    ChartHint = "none"
)

// NormalizeChartHint maps model output onto the known hints. Anything
// unrecognized becomes a table, the rendering that can show any result.
func NormalizeChartHint(raw string) ChartHint {
	switch ChartHint(strings.ToLower(strings.TrimSpace(raw))) {
	case ChartLine:
		return ChartLine
	case ChartBar:
		return ChartBar
	case ChartScatter:
		return ChartScatter
	case ChartNone:
		return ChartNone
	case ChartTable, "":
		return ChartTable
	default:
		return ChartTable
	}
}

// Plan is the model's answer to a question: what to run and how to frame
// the result.
type Plan struct {
	Category     string    `json:"category"`
	SQL          string    `json:"sql"`
	ContextNotes string    `json:"context_notes"`
	ChartHint    ChartHint `json:"chart_hint"`
}

// ValidationError reports a plan that cannot be executed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plan: %s", e.Reason)
}

// Validate rejects plans with no SQL or SQL that names no recognized store
// prefix. Whether the prefixes resolve to exactly one store is checked at
// execution time.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.SQL) == "" {
		return &ValidationError{Reason: "plan contains no SQL"}
	}
	if len(store.DetectStores(p.SQL)) == 0 {
		return &ValidationError{Reason: fmt.Sprintf(
			"SQL references no known store prefix (expected one of: %s)",
			strings.Join(store.AllPrefixes(), ", "))}
	}
	return nil
}

// parsePlanResponse extracts a plan from raw model output. It tries strict
// JSON first (including fenced blocks), then falls back to scanning
// "key: value" lines. It never fails: unusable output yields a zero plan,
// which Validate then rejects.
func parsePlanResponse(raw string) Plan {
	if plan, ok := parseJSONPlan(raw); ok {
		return plan
	}
	return parseLinePlan(raw)
}

type rawPlan struct {
	Category     string `json:"category"`
	SQL          string `json:"sql"`
	ContextNotes string `json:"context_notes"`
	ChartHint    string `json:"chart_hint"`
}

func parseJSONPlan(raw string) (Plan, bool) {
	candidate := raw

	// Prefer the contents of a fenced block when present.
	if start := strings.Index(candidate, "```json"); start >= 0 {
		candidate = candidate[start+len("```json"):]
		if end := strings.Index(candidate, "```"); end >= 0 {
			candidate = candidate[:end]
		}
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return Plan{}, false
	}

	var rp rawPlan
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &rp); err != nil {
		return Plan{}, false
	}

	return Plan{
		Category:     strings.TrimSpace(rp.Category),
		SQL:          strings.TrimSpace(rp.SQL),
		ContextNotes: strings.TrimSpace(rp.ContextNotes),
		ChartHint:    NormalizeChartHint(rp.ChartHint),
	}, true
}

var lineKeys = map[string]func(*Plan, string){
	"category":      func(p *Plan, v string) { p.Category = v },
	"sql":           func(p *Plan, v string) { p.SQL = v },
	"query":         func(p *Plan, v string) { p.SQL = v },
	"context_notes": func(p *Plan, v string) { p.ContextNotes = v },
	"notes":         func(p *Plan, v string) { p.ContextNotes = v },
	"chart_hint":    func(p *Plan, v string) { p.ChartHint = NormalizeChartHint(v) },
	"chart":         func(p *Plan, v string) { p.ChartHint = NormalizeChartHint(v) },
}

func parseLinePlan(raw string) Plan {
	plan := Plan{ChartHint: ChartTable}

	for _, line := range strings.Split(raw, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		key = strings.ToLower(strings.Trim(key, " \t*-\"'`"))
		value = strings.Trim(value, " \t\"'`")

		if set, ok := lineKeys[key]; ok && value != "" {
			set(&plan, value)
		}
	}

	return plan
}
