package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/internal/store"
	"github.com/seo-hub/backend/pkg/logger"
)

const explainSystemPrompt = `You are an SEO analyst explaining query results to a marketer. Given a
question, summary statistics and sample rows, write a concise explanation:
1. A direct answer to the question.
2. Notable insights from the numbers.
3. Trends worth watching, if the data shows any.
4. One or two recommended actions.

Base everything strictly on the data provided. If there is no data, say so
plainly and suggest what to check instead. Do not invent numbers.`

const sampleRowLimit = 5

// explain produces the prose explanation for a result. Model failures fall
// back to a templated summary so the caller always gets something readable.
func (e *Executor) explain(ctx context.Context, question string, plan *planner.Plan, rows *store.ResultSet, diagnostic string) string {
	prompt := buildExplainPrompt(question, plan, rows, diagnostic)

	resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: explainSystemPrompt,
		UserPrompt:   prompt,
		Temperature:  0.7,
	})
	if err != nil {
		logger.Warn("Explanation generation failed, using fallback", zap.Error(err))
		return fallbackExplanation(question, rows, diagnostic)
	}

	return strings.TrimSpace(resp.Content)
}

func buildExplainPrompt(question string, plan *planner.Plan, rows *store.ResultSet, diagnostic string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n\n", question)

	if plan.ContextNotes != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", plan.ContextNotes)
	}

	b.WriteString("Summary statistics:\n")
	b.WriteString(rows.Summary())
	b.WriteString("\n")

	if !rows.Empty() {
		fmt.Fprintf(&b, "\nSample rows (up to %d of %d):\n", sampleRowLimit, len(rows.Rows))
		b.WriteString(rows.FormatSample(sampleRowLimit))
		b.WriteString("\n")
	}

	if diagnostic != "" {
		fmt.Fprintf(&b, "\nNote: the query failed to execute (%s), so no rows are available.\n", diagnostic)
	}

	return b.String()
}

func fallbackExplanation(question string, rows *store.ResultSet, diagnostic string) string {
	if diagnostic != "" {
		return fmt.Sprintf("The query for %q could not be executed (%s). No results are available; try rephrasing the question.", question, diagnostic)
	}
	if rows.Empty() {
		return fmt.Sprintf("No data matched the question %q. The relevant tables may not cover this keyword, domain or date range yet.", question)
	}
	return fmt.Sprintf("The query for %q returned %d rows across columns %s. A detailed explanation is temporarily unavailable.",
		question, len(rows.Rows), strings.Join(rows.Columns, ", "))
}
