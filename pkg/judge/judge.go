package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/caliper-hq/caliper-api/pkg/jsonextract"
)

const (
	defaultEndpoint    = "https://api.perplexity.ai"
	defaultModel       = "sonar-reasoning"
	defaultTimeout     = 60 * time.Second
	defaultPingTimeout = 8 * time.Second
	excerptLimit       = 400
)

var (
	judgeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "caliper",
		Subsystem: "judge",
		Name:      "request_duration_seconds",
		Help:      "Duration of judge evaluation requests",
	}, []string{"model"})

	judgeDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caliper",
		Subsystem: "judge",
		Name:      "degraded_results_total",
		Help:      "Number of degraded judge results by reason",
	}, []string{"model", "reason"})
)

// Config holds the judge endpoint settings. An empty APIKey is a valid
// configuration state, not an error: the client stays constructible and
// produces degraded results without touching the network.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Client talks to a chat-completion style reasoning endpoint and maps its
// replies onto the fixed Result schema. Judge and Ping never return an
// error; every failure mode collapses into a degraded Result or a false
// liveness report.
type Client struct {
	cfg            Config
	completionsURL string
	httpClient     *http.Client
	tracer         trace.Tracer
	logger         zerolog.Logger
}

// New builds a judge client, filling unset options with defaults.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		cfg:            cfg,
		completionsURL: strings.TrimRight(cfg.Endpoint, "/") + "/chat/completions",
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		tracer:         otel.Tracer("github.com/caliper-hq/caliper-api/pkg/judge"),
		logger:         logger.With().Str("component", "judge_client").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

// Judge grades one submission. The runner result is passed through to the
// model as context only. The returned Result is degraded, never an error,
// when the credential is missing, the transport fails, the endpoint
// answers non-2xx, or no JSON object can be extracted from the reply.
func (c *Client) Judge(parent context.Context, question Question, submission Submission, runnerResult interface{}) Result {
	ctx, span := c.tracer.Start(parent, "judge.evaluate", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.String("question.qtype", question.Qtype),
	))
	defer span.End()

	if c.cfg.APIKey == "" {
		return c.degraded(span, "no_api_key",
			"judge unavailable (no API key)",
			[]string{"judge API key not configured on server."},
			map[string]interface{}{"reason": "no_api_key"})
	}

	payload := chatRequest{
		Model:       c.cfg.Model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: judgeSystemPrompt()},
			{Role: "user", Content: buildJudgePrompt(question, submission, runnerResult)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return c.degraded(span, "network_error",
			"judge unavailable (network error)",
			[]string{fmt.Sprintf("network_error: %v", err)},
			map[string]interface{}{"exception": err.Error()})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(body))
	if err != nil {
		return c.degraded(span, "network_error",
			"judge unavailable (network error)",
			[]string{fmt.Sprintf("network_error: %v", err)},
			map[string]interface{}{"exception": err.Error()})
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	judgeDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return c.degraded(span, "network_error",
			"judge unavailable (network error)",
			[]string{fmt.Sprintf("network_error: %v", err)},
			map[string]interface{}{"exception": err.Error()})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.degraded(span, "network_error",
			"judge unavailable (network error)",
			[]string{fmt.Sprintf("network_error: %v", err)},
			map[string]interface{}{"exception": err.Error()})
	}

	text := candidateText(raw)
	rawExcerpt := excerpt(text)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.degraded(span, "http_error",
			"judge unavailable (network error)",
			[]string{fmt.Sprintf("network_error: judge endpoint returned status %d", resp.StatusCode)},
			map[string]interface{}{"http_status": resp.StatusCode, "raw_excerpt": rawExcerpt})
	}

	parsed, ok := jsonextract.Extract(text)
	if !ok {
		return c.degraded(span, "unparsable_response",
			"judge unavailable (unparsable response)",
			[]string{"judge returned an unparsable response."},
			map[string]interface{}{"http_status": resp.StatusCode, "raw_excerpt": rawExcerpt})
	}

	result := normalize(parsed)
	result.Debug = map[string]interface{}{"http_status": resp.StatusCode, "raw_excerpt": rawExcerpt}

	span.SetAttributes(attribute.Float64("judge.score", result.Score))
	c.logger.Debug().Float64("score", result.Score).Msg("judge result normalized")
	return result
}

func (c *Client) degraded(span trace.Span, reason, verdict string, improvements []string, debug map[string]interface{}) Result {
	judgeDegraded.WithLabelValues(c.cfg.Model, reason).Inc()
	span.SetAttributes(attribute.String("judge.degraded_reason", reason))
	c.logger.Warn().Str("reason", reason).Msg("judge produced degraded result")

	return Result{
		Score:        0,
		Verdict:      verdict,
		Mistakes:     make([]string, 0),
		Improvements: improvements,
		Citations:    make([]string, 0),
		Debug:        debug,
	}
}

func judgeSystemPrompt() string {
	return "You are an interview answer judge. RETURN ONLY a single valid JSON object and nothing else. " +
		"The JSON must contain keys: score (number 0..100), verdict (string), mistakes (array), improvements (array), citations (array). " +
		"Do not include any commentary, analysis, or text outside the JSON. " +
		"If you cannot produce values for a key, return an empty array or empty string as appropriate."
}

func buildJudgePrompt(question Question, submission Submission, runnerResult interface{}) string {
	builder := strings.Builder{}
	builder.WriteString("Question:\n")
	builder.WriteString(jsonText(question))
	builder.WriteString("\n\nSubmission:\n")
	builder.WriteString(jsonText(submission))
	builder.WriteString("\n\nRunner checks:\n")
	builder.WriteString(jsonText(runnerResult))
	builder.WriteString("\n\nReturn ONLY the JSON object with keys: score, verdict, mistakes, improvements, citations.")
	return builder.String()
}

func jsonText(value interface{}) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// candidateText pulls the model's textual output from a chat-completion
// envelope, trying choices[0].message.content then .text, and falls back
// to the raw body when the envelope shape is absent.
func candidateText(body []byte) string {
	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Text    string `json:"text"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return string(body)
	}

	if len(envelope.Choices) > 0 {
		message := envelope.Choices[0].Message
		if message.Content != "" {
			return message.Content
		}
		if message.Text != "" {
			return message.Text
		}
	}

	return string(body)
}

func excerpt(text string) string {
	if len(text) > excerptLimit {
		return text[:excerptLimit] + "..."
	}
	return text
}
