package ai

import (
	"context"
	"encoding/json"
)

// GeneratedQuestion is the normalized question draft produced by the
// generator. Spec and Rubric stay opaque payloads since their shape is
// provider-defined.
type GeneratedQuestion struct {
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Spec        json.RawMessage `json:"spec"`
	Rubric      json.RawMessage `json:"rubric"`
	IdealAnswer string          `json:"ideal_answer"`
	Version     int             `json:"version"`
}

// Generator drafts interview questions from an admin prompt. It never
// fails outward: a missing credential or a failing endpoint yields a
// deterministic stub draft instead of an error.
type Generator interface {
	GenerateQuestion(ctx context.Context, adminPrompt string) GeneratedQuestion
}
