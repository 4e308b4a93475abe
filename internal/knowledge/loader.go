package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/pkg/logger"
)

type sqlPatternFile struct {
	Question string            `json:"question"`
	SQL      string            `json:"sql"`
	Category string            `json:"category"`
	Metadata map[string]string `json:"metadata"`
}

type trendFile struct {
	Trend    string            `json:"trend"`
	Source   string            `json:"source"`
	Date     string            `json:"date"`
	Metadata map[string]string `json:"metadata"`
}

type insightFile struct {
	Competitor string            `json:"competitor"`
	Insight    string            `json:"insight"`
	Date       string            `json:"date"`
	Metadata   map[string]string `json:"metadata"`
}

// LoadKnowledgeBase seeds the pattern store from JSON files under dir.
// Missing files are skipped. A malformed file aborts loading of that
// collection only; the others still load, and the per-file failures come
// back joined into one error.
func LoadKnowledgeBase(ctx context.Context, ps *PatternStore, dir string) error {
	if dir == "" {
		return nil
	}

	var errs []error

	errs = append(errs, loadCollection(dir, "sql_patterns.json", func(data []byte) error {
		var patterns []sqlPatternFile
		if err := json.Unmarshal(data, &patterns); err != nil {
			return err
		}
		for _, p := range patterns {
			if err := ps.AddSQLPattern(ctx, p.Question, p.SQL, p.Category, p.Metadata); err != nil {
				return err
			}
		}
		logger.Info("Loaded sql patterns", zap.Int("count", len(patterns)))
		return nil
	}))

	errs = append(errs, loadCollection(dir, "trends.json", func(data []byte) error {
		var trends []trendFile
		if err := json.Unmarshal(data, &trends); err != nil {
			return err
		}
		for _, t := range trends {
			if err := ps.AddTrend(ctx, t.Trend, t.Source, t.Date, t.Metadata); err != nil {
				return err
			}
		}
		logger.Info("Loaded trends", zap.Int("count", len(trends)))
		return nil
	}))

	errs = append(errs, loadCollection(dir, "competitor_insights.json", func(data []byte) error {
		var insights []insightFile
		if err := json.Unmarshal(data, &insights); err != nil {
			return err
		}
		for _, i := range insights {
			if err := ps.AddCompetitorInsight(ctx, i.Competitor, i.Insight, i.Date, i.Metadata); err != nil {
				return err
			}
		}
		logger.Info("Loaded competitor insights", zap.Int("count", len(insights)))
		return nil
	}))

	return errors.Join(errs...)
}

func loadCollection(dir, filename string, load func([]byte) error) error {
	path := filepath.Join(dir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("Knowledge base file not present, skipping", zap.String("file", path))
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if err := load(data); err != nil {
		logger.Warn("Failed to load knowledge base file",
			zap.String("file", path),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", filename, err)
	}

	return nil
}
