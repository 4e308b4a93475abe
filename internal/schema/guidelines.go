package schema

// Guidelines returns the fixed SQL authoring rules appended to every
// planning prompt. They encode the prefix convention the executor relies on
// for store routing.
func Guidelines() string {
	return `SQL authoring rules:
1. Every table reference MUST carry its store prefix (rankings., content. or mentions.).
2. A single query may reference tables from ONE store only. Never join across stores.
3. Use only tables and columns that appear in the schema above.
4. Write standard SQLite SQL. Prefer explicit column lists over SELECT *.
5. When comparing dates, remember check_date and created_at are stored as TEXT in ISO format.
6. Aggregate and ORDER BY when the question implies a ranking or a trend.
7. LIMIT result sets to what the question needs; default to LIMIT 100 for open-ended questions.
8. The legacy prefixes urls_analysis. (for content) and aimodels. (for mentions) are accepted but prefer the canonical names.`
}
