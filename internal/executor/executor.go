package executor

import (
	"context"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/metrics"
	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/internal/store"
	"github.com/seo-hub/backend/pkg/logger"
)

// Result is the full outcome of running one plan: where it ran, what came
// back, a prose explanation and an optional chart.
type Result struct {
	Store       store.StoreID
	Rows        *store.ResultSet
	Chart       *Chart
	Explanation string
}

// Executor routes plans to the right store, runs them, and turns the rows
// into an explanation and chart.
type Executor struct {
	stores *store.Stores
	llm    llm.Completer
}

func New(stores *store.Stores, completer llm.Completer) *Executor {
	return &Executor{stores: stores, llm: completer}
}

// Run executes a plan end to end. Store and model failures degrade: the
// caller always gets a Result with an explanation, possibly with empty rows
// and no chart. Only routing failures return an error, because there is no
// store to run against.
func (e *Executor) Run(ctx context.Context, question string, plan *planner.Plan) (*Result, error) {
	target, err := ResolveStore(plan.SQL)
	if err != nil {
		return nil, err
	}

	localSQL := store.StripPrefixes(plan.SQL, target)

	diagnostic := ""
	rows, err := e.stores.Query(ctx, target, localSQL)
	if err != nil {
		logger.Warn("Query execution failed",
			zap.String("store", string(target)),
			zap.String("sql", localSQL),
			zap.Error(err),
		)
		metrics.StoreQueryErrors.WithLabelValues(string(target)).Inc()
		diagnostic = err.Error()
		rows = &store.ResultSet{}
	}

	result := &Result{
		Store: target,
		Rows:  rows,
		Chart: buildChart(plan.ChartHint, rows),
	}

	result.Explanation = e.explain(ctx, question, plan, rows, diagnostic)

	return result, nil
}
