package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(cfg))
	app.Post("/api/v1/ask", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func postAsk(t *testing.T, app *fiber.App, contentType, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestValidQuestionPasses(t *testing.T) {
	app := newTestApp(Config{})
	code := postAsk(t, app, "application/json", `{"question": "Which domains rank best?"}`)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestQuestionWithSQLWordsPasses(t *testing.T) {
	// Questions legitimately contain SQL-looking words; there is no
	// keyword blocklist.
	app := newTestApp(Config{})
	code := postAsk(t, app, "application/json", `{"question": "Select the top keywords and drop the ones below position 50"}`)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestMissingQuestionRejected(t *testing.T) {
	app := newTestApp(Config{})
	assert.Equal(t, fiber.StatusBadRequest, postAsk(t, app, "application/json", `{}`))
	assert.Equal(t, fiber.StatusBadRequest, postAsk(t, app, "application/json", `{"question": "   "}`))
	assert.Equal(t, fiber.StatusBadRequest, postAsk(t, app, "application/json", `not json`))
}

func TestOverlongQuestionRejected(t *testing.T) {
	app := newTestApp(Config{MaxQuestionLength: 10})
	code := postAsk(t, app, "application/json", `{"question": "this question is far longer than ten characters"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestUnsupportedContentTypeRejected(t *testing.T) {
	app := newTestApp(Config{})
	code := postAsk(t, app, "text/plain", `{"question": "hi"}`)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, code)
}
