package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/handler"
)

type mockPinger struct {
	ok          bool
	info        map[string]interface{}
	lastTimeout time.Duration
}

func (m *mockPinger) Ping(_ context.Context, timeout time.Duration) (bool, map[string]interface{}) {
	m.lastTimeout = timeout
	return m.ok, m.info
}

func TestJudgeHandlerHealthStripsExcerptOutsideDevelopment(t *testing.T) {
	pinger := &mockPinger{ok: true, info: map[string]interface{}{
		"http_status": 200,
		"time_ms":     42,
		"parsed":      true,
		"raw_excerpt": "{\"id\":\"cmpl\"}",
	}}
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	handler.NewJudgeHandler(pinger, false, logger).Register(app.Group("/api/admin/judge"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/judge/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response dto.JudgeHealthResponse
	decodeResponse(t, resp, &response)
	require.True(t, response.OK)
	require.NotContains(t, response.Info, "raw_excerpt")
	require.EqualValues(t, 200, response.Info["http_status"])
}

func TestJudgeHandlerHealthKeepsExcerptInDevelopment(t *testing.T) {
	pinger := &mockPinger{ok: true, info: map[string]interface{}{
		"http_status": 200,
		"raw_excerpt": "raw body",
	}}
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	handler.NewJudgeHandler(pinger, true, logger).Register(app.Group("/api/admin/judge"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/judge/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	var response dto.JudgeHealthResponse
	decodeResponse(t, resp, &response)
	require.Equal(t, "raw body", response.Info["raw_excerpt"])
}

func TestJudgeHandlerHealthReportsFailure(t *testing.T) {
	pinger := &mockPinger{ok: false, info: map[string]interface{}{"error": "no_api_key"}}
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	handler.NewJudgeHandler(pinger, false, logger).Register(app.Group("/api/admin/judge"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/judge/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response dto.JudgeHealthResponse
	decodeResponse(t, resp, &response)
	require.False(t, response.OK)
	require.Equal(t, "no_api_key", response.Info["error"])
}
