package runner_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caliper-hq/caliper-api/internal/runner"
)

func TestRunEmptyAnswerFailsWithoutChecks(t *testing.T) {
	for _, answer := range []string{"", "null", `""`, "0", "false", "[]", "{}"} {
		result := runner.Run(nil, json.RawMessage(answer))
		require.False(t, result.Passed, "answer %q", answer)
		require.Empty(t, result.Checks, "answer %q", answer)
		require.Zero(t, result.ScoreRunner, "answer %q", answer)
	}
}

func TestRunCountsTableRows(t *testing.T) {
	answer, err := json.Marshal("name,qty\nalpha,1\nbeta,2\ngamma,3")
	require.NoError(t, err)

	result := runner.Run(nil, answer)
	require.True(t, result.Passed)
	require.Equal(t, float64(100), result.ScoreRunner)
	require.Len(t, result.Checks, 1)

	check := result.Checks[0]
	require.Equal(t, "rows_present", check.Name)
	require.True(t, check.Passed)
	require.NotNil(t, check.Rows)
	require.Equal(t, 3, *check.Rows)
}

func TestRunFailsTableWithoutDataRows(t *testing.T) {
	// A quoted multi-line cell keeps the line break internal while the
	// whole text is still a single header record.
	answer, err := json.Marshal("\"product\nname\",qty")
	require.NoError(t, err)

	result := runner.Run(nil, answer)
	require.False(t, result.Passed)
	require.Zero(t, result.ScoreRunner)
	require.Len(t, result.Checks, 1)
	require.Equal(t, "rows_present", result.Checks[0].Name)
	require.False(t, result.Checks[0].Passed)
}

func TestRunTreatsTrailingNewlineAsScalar(t *testing.T) {
	answer, err := json.Marshal("a single line answer\n")
	require.NoError(t, err)

	result := runner.Run(nil, answer)
	require.True(t, result.Passed)
	require.Len(t, result.Checks, 1)
	require.Equal(t, "non_empty_submission", result.Checks[0].Name)
}

func TestRunPassesNonEmptyStructuredAnswer(t *testing.T) {
	result := runner.Run(nil, json.RawMessage(`{"cells": {"A1": "=SUM(B:B)"}}`))
	require.True(t, result.Passed)
	require.Equal(t, float64(100), result.ScoreRunner)
	require.Len(t, result.Checks, 1)
	require.Equal(t, "non_empty_submission", result.Checks[0].Name)
	require.True(t, result.Checks[0].Passed)
}

func TestRunCapturesDecodeFaultAsFailedCheck(t *testing.T) {
	result := runner.Run(nil, json.RawMessage("{not json"))
	require.False(t, result.Passed)
	require.Zero(t, result.ScoreRunner)
	require.Len(t, result.Checks, 1)
	require.Equal(t, "internal_error", result.Checks[0].Name)
	require.False(t, result.Checks[0].Passed)
	require.NotEmpty(t, result.Checks[0].Error)
}

func TestRunResultSerializesRunnerShape(t *testing.T) {
	answer, err := json.Marshal("name,qty\nalpha,1")
	require.NoError(t, err)

	encoded, err := json.Marshal(runner.Run(nil, answer))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, true, decoded["passed"])
	require.Equal(t, float64(100), decoded["score_runner"])

	checks, ok := decoded["checks"].([]interface{})
	require.True(t, ok)
	require.Len(t, checks, 1)
	first, ok := checks[0].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "rows_present", first["name"])
	require.Equal(t, float64(1), first["rows"])
}
