package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/executor"
	"github.com/seo-hub/backend/internal/knowledge"
	"github.com/seo-hub/backend/internal/metrics"
	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/internal/store"
	"github.com/seo-hub/backend/pkg/logger"
)

// Answer is everything the API returns for one question. Answers are not
// persisted anywhere; each question is handled from scratch.
type Answer struct {
	ID          string           `json:"id"`
	Question    string           `json:"question"`
	Category    string           `json:"category"`
	Store       store.StoreID    `json:"store,omitempty"`
	SQL         string           `json:"sql,omitempty"`
	Explanation string           `json:"explanation"`
	Rows        *store.ResultSet `json:"rows"`
	Chart       *executor.Chart  `json:"chart,omitempty"`
	LatencyMS   int64            `json:"latency_ms"`
}

// Engine runs the full question pipeline: plan, route, execute, explain.
// Questions are serialized; the underlying SQLite stores are opened once
// and a single in-flight query per process keeps WAL contention away.
type Engine struct {
	mu       sync.Mutex
	planner  *planner.Planner
	executor *executor.Executor
	patterns *knowledge.PatternStore
}

func NewEngine(p *planner.Planner, e *executor.Executor, patterns *knowledge.PatternStore) *Engine {
	return &Engine{
		planner:  p,
		executor: e,
		patterns: patterns,
	}
}

// Ask answers a natural-language question. The only error it returns is for
// a blank question; every downstream failure (model, routing, store)
// degrades to an Answer whose explanation says what went wrong, with empty
// rows and no chart.
func (e *Engine) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()

	answer := &Answer{
		ID:       uuid.NewString(),
		Question: question,
		Rows:     &store.ResultSet{},
	}
	defer func() {
		answer.LatencyMS = time.Since(started).Milliseconds()
	}()

	planStart := time.Now()
	plan, err := e.planner.CreatePlan(ctx, question)
	metrics.QuestionDuration.WithLabelValues("plan").Observe(time.Since(planStart).Seconds())

	if err != nil {
		// Only plans the model produced but that failed validation count
		// as invalid; transport and generation errors are a separate
		// failure mode.
		var validationErr *planner.ValidationError
		if errors.As(err, &validationErr) {
			metrics.PlanValidations.WithLabelValues("invalid").Inc()
		}
		metrics.QuestionsTotal.WithLabelValues("plan_failed").Inc()
		logger.Warn("Planning failed",
			zap.String("question", question),
			zap.Error(err),
		)
		answer.Explanation = fmt.Sprintf("I could not plan a query for this question (%v). Try rephrasing it in terms of keyword rankings, site content or AI brand mentions.", err)
		return answer, nil
	}
	metrics.PlanValidations.WithLabelValues("valid").Inc()

	answer.Category = plan.Category
	answer.SQL = plan.SQL

	execStart := time.Now()
	result, err := e.executor.Run(ctx, question, plan)
	metrics.QuestionDuration.WithLabelValues("execute").Observe(time.Since(execStart).Seconds())

	if err != nil {
		metrics.QuestionsTotal.WithLabelValues("routing_failed").Inc()
		logger.Warn("Routing failed",
			zap.String("sql", plan.SQL),
			zap.Error(err),
		)
		answer.Explanation = fmt.Sprintf("The generated query could not be routed to a data store (%v).", err)
		return answer, nil
	}

	metrics.StoreRoutings.WithLabelValues(string(result.Store)).Inc()
	metrics.QuestionsTotal.WithLabelValues("ok").Inc()

	answer.Store = result.Store
	answer.Rows = result.Rows
	answer.Chart = result.Chart
	answer.Explanation = result.Explanation

	e.recordPattern(ctx, question, plan, result)

	return answer, nil
}

// recordPattern appends the question/SQL pair to the pattern store when the
// query actually produced rows, so future planning can reuse it.
func (e *Engine) recordPattern(ctx context.Context, question string, plan *planner.Plan, result *executor.Result) {
	if e.patterns == nil || result.Rows.Empty() {
		return
	}

	if err := e.patterns.AddSQLPattern(ctx, question, plan.SQL, plan.Category, nil); err != nil {
		logger.Warn("Failed to record query pattern", zap.Error(err))
	}
}
