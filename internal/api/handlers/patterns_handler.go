package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/knowledge"
	"github.com/seo-hub/backend/pkg/logger"
)

type PatternsHandler struct {
	patterns *knowledge.PatternStore
}

func NewPatternsHandler(patterns *knowledge.PatternStore) *PatternsHandler {
	return &PatternsHandler{
		patterns: patterns,
	}
}

// HandleAddPattern appends a curated question/SQL exemplar to the pattern
// store. Entries are append-only; there is no update or delete.
func (h *PatternsHandler) HandleAddPattern(c *fiber.Ctx) error {
	var req struct {
		Question string            `json:"question"`
		SQL      string            `json:"sql"`
		Category string            `json:"category"`
		Metadata map[string]string `json:"metadata"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Question == "" || req.SQL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Both question and sql are required",
		})
	}

	if err := h.patterns.AddSQLPattern(c.Context(), req.Question, req.SQL, req.Category, req.Metadata); err != nil {
		logger.Error("Failed to store pattern", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store pattern",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "stored",
	})
}

// HandleAddTrend appends a trend note with its source and date.
func (h *PatternsHandler) HandleAddTrend(c *fiber.Ctx) error {
	var req struct {
		Trend    string            `json:"trend"`
		Source   string            `json:"source"`
		Date     string            `json:"date"`
		Metadata map[string]string `json:"metadata"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Trend == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Field trend is required",
		})
	}

	if err := h.patterns.AddTrend(c.Context(), req.Trend, req.Source, req.Date, req.Metadata); err != nil {
		logger.Error("Failed to store trend", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store trend",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "stored",
	})
}

// HandleAddInsight appends a competitor insight.
func (h *PatternsHandler) HandleAddInsight(c *fiber.Ctx) error {
	var req struct {
		Competitor string            `json:"competitor"`
		Insight    string            `json:"insight"`
		Date       string            `json:"date"`
		Metadata   map[string]string `json:"metadata"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Competitor == "" || req.Insight == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Both competitor and insight are required",
		})
	}

	if err := h.patterns.AddCompetitorInsight(c.Context(), req.Competitor, req.Insight, req.Date, req.Metadata); err != nil {
		logger.Error("Failed to store insight", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store insight",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "stored",
	})
}

// HandleQuerySimilar returns the nearest stored patterns, trends and
// competitor insights for the q parameter, up to k per collection.
func (h *PatternsHandler) HandleQuerySimilar(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	k := c.QueryInt("k", 5)
	if k < 1 || k > 50 {
		k = 5
	}

	return c.JSON(h.patterns.QuerySimilar(c.Context(), q, k))
}
