package executor

import (
	"fmt"

	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/internal/store"
)

// Series is one named line/bar group within a chart.
type Series struct {
	Name string    `json:"name"`
	Y    []float64 `json:"y"`
}

// Chart is the renderable shape derived from a result set: the first column
// supplies x values, the second supplies y values, and an optional third
// column splits rows into named series. X is the shared axis in first-seen
// order; every series' y[i] pairs with x[i], with 0 where a series has no
// row for that x value.
type Chart struct {
	Type   planner.ChartHint `json:"type"`
	XLabel string            `json:"x_label"`
	YLabel string            `json:"y_label"`
	X      []string          `json:"x"`
	Series []Series          `json:"series"`
}

// buildChart shapes rows according to the plan's hint. It returns nil when
// the hint asks for no chart, when there is nothing to plot, or when the
// rows do not fit the x/y shape.
func buildChart(hint planner.ChartHint, rows *store.ResultSet) *Chart {
	if hint == planner.ChartNone || hint == planner.ChartTable {
		return nil
	}
	if rows == nil || rows.Empty() || len(rows.Columns) < 2 {
		return nil
	}

	chart := &Chart{
		Type:   hint,
		XLabel: rows.Columns[0],
		YLabel: rows.Columns[1],
	}

	hasSeries := len(rows.Columns) >= 3

	xSeen := make(map[string]bool)
	seriesValues := make(map[string]map[string]float64)
	var seriesOrder []string

	for _, row := range rows.Rows {
		y, ok := asFloat(row[1])
		if !ok {
			continue
		}

		x := fmt.Sprintf("%v", row[0])
		if !xSeen[x] {
			xSeen[x] = true
			chart.X = append(chart.X, x)
		}

		name := chart.YLabel
		if hasSeries {
			name = fmt.Sprintf("%v", row[2])
		}

		if _, seen := seriesValues[name]; !seen {
			seriesOrder = append(seriesOrder, name)
			seriesValues[name] = make(map[string]float64)
		}
		seriesValues[name][x] = y
	}

	if len(seriesOrder) == 0 {
		return nil
	}

	// Align every series to the union of x values so y[i] always pairs
	// with x[i], even when a series is missing rows for some x.
	for _, name := range seriesOrder {
		s := Series{Name: name, Y: make([]float64, len(chart.X))}
		for i, x := range chart.X {
			s.Y[i] = seriesValues[name][x]
		}
		chart.Series = append(chart.Series, s)
	}

	return chart
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
