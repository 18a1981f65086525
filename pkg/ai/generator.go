package ai

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/caliper-hq/caliper-api/pkg/jsonextract"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "caliper",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of question generation requests",
	}, []string{"model"})

	generationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caliper",
		Subsystem: "ai",
		Name:      "generation_fallbacks_total",
		Help:      "Number of question generations served from a fallback stub",
	}, []string{"model", "reason"})
)

// Config defines configuration options for the question generator. The
// endpoint must be chat-completion compatible; APIKey may be empty, which
// switches the generator to offline stub drafts.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float32
	Logger      zerolog.Logger
}

// QuestionGenerator implements Generator against a chat completion API.
type QuestionGenerator struct {
	client *openai.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewQuestionGenerator builds a generator using the provided configuration.
func NewQuestionGenerator(cfg Config) *QuestionGenerator {
	if cfg.Model == "" {
		cfg.Model = "sonar-pro"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}

	return &QuestionGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/caliper-hq/caliper-api/pkg/ai"),
		logger: logger.With().Str("component", "question_generator").Logger(),
	}
}

// GenerateQuestion asks the model for a question draft in strict JSON and
// normalizes the reply. Without a credential it returns an offline stub;
// endpoint or parse failures return a fallback draft carrying the error
// inside the spec payload.
func (g *QuestionGenerator) GenerateQuestion(parent context.Context, adminPrompt string) GeneratedQuestion {
	ctx, span := g.tracer.Start(parent, "ai.generate_question", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	if g.cfg.APIKey == "" {
		generationFallbacks.WithLabelValues(g.cfg.Model, "no_api_key").Inc()
		return stubDraft(adminPrompt, "")
	}

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: generatorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: adminPrompt,
			},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	generationDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		generationFallbacks.WithLabelValues(g.cfg.Model, "endpoint_error").Inc()
		span.RecordError(err)
		g.logger.Warn().Err(err).Msg("question generation failed, serving fallback draft")
		return stubDraft(adminPrompt, err.Error())
	}

	if len(resp.Choices) == 0 {
		generationFallbacks.WithLabelValues(g.cfg.Model, "empty_response").Inc()
		return defaultDraft(adminPrompt)
	}

	parsed, ok := jsonextract.Extract(resp.Choices[0].Message.Content)
	if !ok {
		generationFallbacks.WithLabelValues(g.cfg.Model, "unparsable_response").Inc()
		g.logger.Warn().Msg("generator reply had no parseable JSON, serving default draft")
		return defaultDraft(adminPrompt)
	}

	return normalizeDraft(parsed, adminPrompt)
}

func generatorSystemPrompt() string {
	return "You are a question generator for spreadsheet interviews. " +
		"Return only valid JSON in the response body with these fields: " +
		`{"type":"theory"|"practical","title":str,"spec":object,"rubric":object,"ideal_answer":str,"version":int}. ` +
		"If you cannot produce a dataset for a practical question, set spec.dataset to null."
}

// stubDraft is the deterministic offline draft, with an optional error
// note folded into the spec payload.
func stubDraft(adminPrompt, errNote string) GeneratedQuestion {
	title := "VLOOKUP concept (stub)"
	spec := map[string]interface{}{"prompt": adminPrompt}
	if errNote != "" {
		title = "VLOOKUP concept (fallback)"
		spec["error"] = errNote
	}

	return GeneratedQuestion{
		Type:        "theory",
		Title:       title,
		Spec:        mustRaw(spec),
		Rubric:      mustRaw(map[string]interface{}{"key_points": []string{"lookup mechanics", "limitations", "alternatives"}}),
		IdealAnswer: "VLOOKUP retrieves values vertically; INDEX/MATCH is more flexible.",
		Version:     1,
	}
}

// defaultDraft covers replies that arrived but carried no usable JSON.
func defaultDraft(adminPrompt string) GeneratedQuestion {
	title := adminPrompt
	if len(title) > 40 {
		title = title[:40]
	}

	return GeneratedQuestion{
		Type:        "theory",
		Title:       "Generated: " + title,
		Spec:        mustRaw(map[string]interface{}{"prompt": adminPrompt}),
		Rubric:      json.RawMessage(`{}`),
		IdealAnswer: "",
		Version:     1,
	}
}

// Accepted key aliases in generator replies, primary key first.
var (
	titleKeys = []string{"title", "name"}
	specKeys  = []string{"spec", "prompt"}
	idealKeys = []string{"ideal_answer", "answer"}
)

func normalizeDraft(parsed map[string]interface{}, adminPrompt string) GeneratedQuestion {
	draft := GeneratedQuestion{
		Type:        "theory",
		Title:       "Untitled Question",
		Spec:        mustRaw(map[string]interface{}{"prompt": adminPrompt}),
		Rubric:      json.RawMessage(`{}`),
		IdealAnswer: "",
		Version:     1,
	}

	if qtype, ok := parsed["type"].(string); ok && qtype != "" {
		draft.Type = qtype
	}
	if title, ok := lookupString(parsed, titleKeys); ok {
		draft.Title = title
	}
	if spec, ok := lookupValue(parsed, specKeys); ok {
		draft.Spec = mustRaw(spec)
	}
	if rubric, ok := parsed["rubric"]; ok && rubric != nil {
		draft.Rubric = mustRaw(rubric)
	}
	if ideal, ok := lookupString(parsed, idealKeys); ok {
		draft.IdealAnswer = ideal
	}
	draft.Version = draftVersion(parsed)

	return draft
}

func lookupValue(parsed map[string]interface{}, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if value, ok := parsed[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func lookupString(parsed map[string]interface{}, keys []string) (string, bool) {
	value, ok := lookupValue(parsed, keys)
	if !ok {
		return "", false
	}
	text, ok := value.(string)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

func draftVersion(parsed map[string]interface{}) int {
	switch v := parsed["version"].(type) {
	case float64:
		if v >= 1 {
			return int(v)
		}
	case string:
		if version, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && version >= 1 {
			return version
		}
	}
	return 1
}

func mustRaw(value interface{}) json.RawMessage {
	encoded, err := json.Marshal(value)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return encoded
}
