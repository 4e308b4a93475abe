package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// ResultSet is the in-memory tabular result of executing one store's SQL.
// Rows keep the store's return order. Result sets live for one request and
// are never persisted.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

func (rs *ResultSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// Sample returns up to n rows for prompt construction.
func (rs *ResultSet) Sample(n int) [][]any {
	if rs == nil || n <= 0 {
		return nil
	}
	if len(rs.Rows) < n {
		n = len(rs.Rows)
	}
	return rs.Rows[:n]
}

// Summary renders per-column statistics (count, and min/max/mean for numeric
// columns) as text for the explanation prompt. Empty result sets yield an
// explicit no-data marker.
func (rs *ResultSet) Summary() string {
	if rs.Empty() {
		return "No data available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d rows, %d columns\n", len(rs.Rows), len(rs.Columns))

	for i, col := range rs.Columns {
		count := 0
		numeric := 0
		var minV, maxV, sum float64

		for _, row := range rs.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			count++
			v, ok := toFloat(row[i])
			if !ok {
				continue
			}
			if numeric == 0 || v < minV {
				minV = v
			}
			if numeric == 0 || v > maxV {
				maxV = v
			}
			sum += v
			numeric++
		}

		if numeric > 0 {
			fmt.Fprintf(&b, "%s: count=%d min=%.2f max=%.2f mean=%.2f\n",
				col, count, minV, maxV, sum/float64(numeric))
		} else {
			fmt.Fprintf(&b, "%s: count=%d\n", col, count)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatSample renders up to n rows as aligned text, header first.
func (rs *ResultSet) FormatSample(n int) string {
	if rs.Empty() {
		return "No data available"
	}

	var b strings.Builder
	b.WriteString(strings.Join(rs.Columns, " | "))
	b.WriteString("\n")
	for _, row := range rs.Sample(n) {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case []byte:
		f, err := strconv.ParseFloat(string(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// scanResultSet drains sql.Rows into a ResultSet.
func scanResultSet(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := &ResultSet{Columns: cols}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		// Normalize []byte cells to strings so results marshal cleanly.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return rs, nil
}
