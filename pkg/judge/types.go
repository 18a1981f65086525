package judge

import (
	"context"
	"encoding/json"
	"time"
)

// Question is the slice of the question record handed to the judge.
type Question struct {
	Title       string          `json:"title"`
	Qtype       string          `json:"qtype"`
	Spec        json.RawMessage `json:"spec,omitempty"`
	Rubric      json.RawMessage `json:"rubric,omitempty"`
	IdealAnswer string          `json:"ideal_answer,omitempty"`
}

// Submission carries the candidate answer as handed to the judge.
type Submission struct {
	Answer  json.RawMessage `json:"answer,omitempty"`
	FileURL string          `json:"file_url,omitempty"`
}

// Result is the judge outcome in its fixed schema. Degraded outcomes use
// the same shape: score 0, an explanatory verdict and a populated debug
// bag. The list fields are never nil, and Score is always within [0,100].
// Debug is diagnostic only; response boundaries drop it outside debugging
// contexts.
type Result struct {
	Score        float64                `json:"score"`
	Verdict      string                 `json:"verdict"`
	Mistakes     []string               `json:"mistakes"`
	Improvements []string               `json:"improvements"`
	Citations    []string               `json:"citations"`
	Debug        map[string]interface{} `json:"debug,omitempty"`
}

// Judger grades one submission against its question. Implementations never
// return an error; failures surface as degraded Results.
type Judger interface {
	Judge(ctx context.Context, question Question, submission Submission, runnerResult interface{}) Result
}

// Pinger checks liveness of the judge endpoint.
type Pinger interface {
	Ping(ctx context.Context, timeout time.Duration) (bool, map[string]interface{})
}
