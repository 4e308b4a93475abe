package planner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/knowledge"
	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/schema"
	"github.com/seo-hub/backend/internal/store"
	"github.com/seo-hub/backend/pkg/logger"
)

const planSystemPrompt = `You are a SQL analyst for a competitive SEO monitoring platform. Given a
question about keyword rankings, site content or AI brand mentions, you plan
exactly one SQLite query against the schema provided.

Respond with a single JSON object and nothing else:
{
  "category": "<short topic label, e.g. rankings_trend, content_audit, brand_mentions>",
  "sql": "<one SQLite query>",
  "context_notes": "<facts the explanation step should know, or empty>",
  "chart_hint": "<line | bar | scatter | table | none>"
}

Pick "line" for time series, "bar" for categorical comparisons, "scatter"
for two-metric relationships, "table" when rows should be shown as-is and
"none" when no visualization helps.`

// ExemplarSource supplies previously successful question/SQL pairs.
type ExemplarSource interface {
	SimilarPatterns(ctx context.Context, question string, topK int) []knowledge.Exemplar
}

// Planner turns a natural-language question into a validated Plan.
type Planner struct {
	llm       llm.Completer
	catalog   *schema.Catalog
	exemplars ExemplarSource
	topK      int
}

func New(completer llm.Completer, catalog *schema.Catalog, exemplars ExemplarSource, topK int) *Planner {
	if topK <= 0 {
		topK = 5
	}
	return &Planner{
		llm:       completer,
		catalog:   catalog,
		exemplars: exemplars,
		topK:      topK,
	}
}

// CreatePlan asks the model for a plan and validates it. The returned error
// is a *ValidationError when the model produced an unusable plan, or the
// completion error when the model was unreachable.
func (p *Planner) CreatePlan(ctx context.Context, question string) (*Plan, error) {
	prompt := p.buildPrompt(ctx, question)

	resp, err := p.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: planSystemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	plan := parsePlanResponse(resp.Content)
	if err := plan.Validate(); err != nil {
		logger.Warn("Model produced an invalid plan",
			zap.String("question", question),
			zap.String("response", resp.Content),
		)
		return nil, err
	}

	logger.Debug("Plan created",
		zap.String("category", plan.Category),
		zap.String("chart_hint", string(plan.ChartHint)),
	)

	return &plan, nil
}

func (p *Planner) buildPrompt(ctx context.Context, question string) string {
	var b strings.Builder

	b.WriteString("# Available data\n\n")
	b.WriteString(p.catalog.Describe(ctx))
	b.WriteString("\n# Rules\n\n")
	b.WriteString(schema.Guidelines())
	b.WriteString("\n\nValid store prefixes: ")
	b.WriteString(strings.Join(store.AllPrefixes(), ", "))
	b.WriteString("\n")

	if p.exemplars != nil {
		if exemplars := p.exemplars.SimilarPatterns(ctx, question, p.topK); len(exemplars) > 0 {
			b.WriteString("\n# Similar past queries\n\n")
			for _, ex := range exemplars {
				b.WriteString(fmt.Sprintf("Question: %s\nSQL: %s\n\n", ex.Question, ex.SQL))
			}
		}
	}

	b.WriteString("\n# Question\n\n")
	b.WriteString(question)

	return b.String()
}
