package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/pkg/completion"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLogger struct{}

func (stubLogger) Debug(module, message string, details map[string]interface{}) {}
func (stubLogger) Info(module, message string, details map[string]interface{})  {}
func (stubLogger) Warn(module, message string, details map[string]interface{})  {}
func (stubLogger) Error(module, message string, details map[string]interface{}) {}
func (stubLogger) Sync() error {
	return nil
}

type errorBody struct {
	Error        string `json:"error"`
	RetryAfterMs int    `json:"retryAfterMs"`
}

// newErrorApp registers one route per error under test so each case goes
// through the real fiber error pipeline.
func newErrorApp(routes map[string]error) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: NewErrorHandler(stubLogger{}),
	})
	for path, err := range routes {
		failWith := err
		app.Get(path, func(ctx *fiber.Ctx) error {
			return failWith
		})
	}
	return app
}

func doRequest(t *testing.T, app *fiber.App, path string) (int, errorBody) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestErrorHandlerRateLimited(t *testing.T) {
	app := newErrorApp(map[string]error{
		"/chat": &completion.RateLimitedError{RetryAfterMs: 3000},
	})

	status, body := doRequest(t, app, "/chat")

	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", body.Error)
	assert.Equal(t, 3000, body.RetryAfterMs)
}

func TestErrorHandlerUpstreamProxiesStatus(t *testing.T) {
	app := newErrorApp(map[string]error{
		"/bad-gateway": &completion.UpstreamError{StatusCode: 502, Body: "upstream exploded"},
		"/teapot":      &completion.UpstreamError{StatusCode: 418},
	})

	status, body := doRequest(t, app, "/bad-gateway")
	assert.Equal(t, 502, status)
	assert.Equal(t, "Failed to get AI response", body.Error)

	status, body = doRequest(t, app, "/teapot")
	assert.Equal(t, 418, status)
	// The upstream body never leaks to the client.
	assert.Equal(t, "Failed to get AI response", body.Error)
}

func TestErrorHandlerAppErrorKinds(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", apperr.NotFound("chat session not found"), fiber.StatusNotFound, "chat session not found"},
		{"validation", apperr.Validation("Message is required"), fiber.StatusBadRequest, "Message is required"},
		{"unauthorized", apperr.Unauthorized("invalid credentials"), fiber.StatusUnauthorized, "invalid credentials"},
		{"conflict", apperr.Conflict("email already registered"), fiber.StatusConflict, "email already registered"},
		{"internal", apperr.Internal("OpenRouter API key not configured"), fiber.StatusInternalServerError, "OpenRouter API key not configured"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newErrorApp(map[string]error{"/op": tc.err})

			status, body := doRequest(t, app, "/op")

			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantError, body.Error)
		})
	}
}

func TestErrorHandlerFiberErrorKeepsCode(t *testing.T) {
	app := newErrorApp(map[string]error{
		"/payload": fiber.ErrRequestEntityTooLarge,
	})

	status, body := doRequest(t, app, "/payload")

	assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "Request Entity Too Large", body.Error)
}

func TestErrorHandlerUnknownErrorFallsBackTo500(t *testing.T) {
	app := newErrorApp(map[string]error{
		"/boom": errors.New("gorm: connection refused"),
	})

	status, body := doRequest(t, app, "/boom")

	assert.Equal(t, fiber.StatusInternalServerError, status)
	// Internal details stay out of the response body.
	assert.Equal(t, "Internal server error", body.Error)
}
