package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/executor"
	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/pkg/logger"
)

// Planner is the planning surface the evaluator drives.
type Planner interface {
	CreatePlan(ctx context.Context, question string) (*planner.Plan, error)
}

// Evaluator measures planning quality against a labeled dataset: does each
// question route to the expected store, and does the generated SQL contain
// the expected fragments.
type Evaluator struct {
	planner Planner
}

type Dataset struct {
	Items []DatasetItem `json:"items"`
}

type DatasetItem struct {
	Question          string   `json:"question"`
	ExpectedStore     string   `json:"expected_store"`
	ExpectedFragments []string `json:"expected_fragments"`
}

type ItemResult struct {
	Question      string
	PlanError     string
	Store         string
	StoreCorrect  bool
	FragmentsHit  int
	FragmentCount int
}

type Report struct {
	TotalQuestions  int
	PlanFailures    int
	CorrectRoutings int
	RoutingAccuracy float64
	FragmentRecall  float64
	Items           []ItemResult
}

func NewEvaluator(p Planner) *Evaluator {
	return &Evaluator{planner: p}
}

func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var dataset Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	return &dataset, nil
}

func (e *Evaluator) Run(ctx context.Context, dataset *Dataset) (*Report, error) {
	logger.Info("Running planning evaluation", zap.Int("items", len(dataset.Items)))

	report := &Report{
		TotalQuestions: len(dataset.Items),
	}

	var fragmentsHit, fragmentsTotal int

	for i, item := range dataset.Items {
		logger.Info("Evaluating item", zap.Int("index", i+1), zap.Int("total", len(dataset.Items)))

		result := e.evaluateItem(ctx, item)
		report.Items = append(report.Items, result)

		if result.PlanError != "" {
			report.PlanFailures++
			continue
		}
		if result.StoreCorrect {
			report.CorrectRoutings++
		}
		fragmentsHit += result.FragmentsHit
		fragmentsTotal += result.FragmentCount
	}

	if report.TotalQuestions > 0 {
		report.RoutingAccuracy = float64(report.CorrectRoutings) / float64(report.TotalQuestions) * 100
	}
	if fragmentsTotal > 0 {
		report.FragmentRecall = float64(fragmentsHit) / float64(fragmentsTotal) * 100
	}

	logger.Info("Evaluation completed",
		zap.Int("total", report.TotalQuestions),
		zap.Int("plan_failures", report.PlanFailures),
		zap.Float64("routing_accuracy", report.RoutingAccuracy),
	)

	return report, nil
}

func (e *Evaluator) evaluateItem(ctx context.Context, item DatasetItem) ItemResult {
	result := ItemResult{
		Question:      item.Question,
		FragmentCount: len(item.ExpectedFragments),
	}

	plan, err := e.planner.CreatePlan(ctx, item.Question)
	if err != nil {
		result.PlanError = err.Error()
		return result
	}

	if target, err := executor.ResolveStore(plan.SQL); err == nil {
		result.Store = string(target)
		result.StoreCorrect = string(target) == item.ExpectedStore
	}

	loweredSQL := strings.ToLower(plan.SQL)
	for _, fragment := range item.ExpectedFragments {
		if strings.Contains(loweredSQL, strings.ToLower(fragment)) {
			result.FragmentsHit++
		}
	}

	return result
}

func (r *Report) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, `
Planning Evaluation Report
==========================

Total Questions: %d
Plan Failures: %d
Correct Routings: %d
Routing Accuracy: %.1f%%
Fragment Recall: %.1f%%

`,
		r.TotalQuestions,
		r.PlanFailures,
		r.CorrectRoutings,
		r.RoutingAccuracy,
		r.FragmentRecall,
	)

	for _, item := range r.Items {
		if item.PlanError != "" {
			fmt.Fprintf(&b, "FAIL  %s (plan error: %s)\n", item.Question, item.PlanError)
			continue
		}
		status := "OK"
		if !item.StoreCorrect {
			status = "MISS"
		}
		fmt.Fprintf(&b, "%-4s  %s -> %s (%d/%d fragments)\n",
			status, item.Question, item.Store, item.FragmentsHit, item.FragmentCount)
	}

	return b.String()
}
