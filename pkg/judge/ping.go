package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Ping sends a minimal low-token prompt to the judge endpoint and reports
// liveness. Success means the transport answered 2xx with a JSON body; the
// reply content is not validated against the judging schema. With no
// credential configured it fails immediately and makes no network call.
// The info map carries diagnostics; the raw_excerpt entry must be dropped
// by callers outside debugging contexts.
func (c *Client) Ping(parent context.Context, timeout time.Duration) (bool, map[string]interface{}) {
	spanCtx, span := c.tracer.Start(parent, "judge.ping", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	if c.cfg.APIKey == "" {
		return false, map[string]interface{}{"error": "no_api_key"}
	}

	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	payload := chatRequest{
		Model:       c.cfg.Model,
		Temperature: 0,
		MaxTokens:   8,
		Messages: []chatMessage{
			{Role: "system", Content: `You are a diagnostic helper. Reply quickly with the single JSON: {"ok": true} (no extra text).`},
			{Role: "user", Content: "health-check"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, map[string]interface{}{"exception": err.Error(), "time_ms": int64(0)}
	}

	ctx, cancel := context.WithTimeout(spanCtx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(body))
	if err != nil {
		return false, map[string]interface{}{"exception": err.Error(), "time_ms": int64(0)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, map[string]interface{}{"exception": err.Error(), "time_ms": time.Since(start).Milliseconds()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return false, map[string]interface{}{"exception": err.Error(), "time_ms": elapsed}
	}

	var decoded interface{}
	parsed := json.Unmarshal(raw, &decoded) == nil

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300 && parsed
	info := map[string]interface{}{
		"http_status": resp.StatusCode,
		"time_ms":     elapsed,
		"parsed":      parsed,
		"raw_excerpt": excerpt(string(raw)),
	}
	return ok, info
}
