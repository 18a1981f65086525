package runner

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// Check is a single deterministic verification applied to a submitted answer.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Rows   *int   `json:"rows,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of the deterministic checks for one submission.
// It is folded into the Grade record and reported alongside the judge
// result; it never contributes to the persisted score.
type Result struct {
	Passed      bool    `json:"passed"`
	Checks      []Check `json:"checks"`
	ScoreRunner float64 `json:"score_runner"`
}

// Run applies the deterministic checks for a question to a candidate's
// answer. It never fails outward: decoding problems and panics become a
// failed internal_error check with passed=false and score 0.
//
// The baseline policy: an empty answer fails with no checks; a string
// answer with an internal line break is parsed as a delimited table and
// passes when at least one data row is present; any other non-empty
// answer passes a generic presence check. Question specs are accepted so
// richer per-question checks can hang off them later.
func Run(spec, answer json.RawMessage) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = faultResult(fmt.Sprintf("%v", r))
		}
	}()

	var value interface{}
	if len(answer) > 0 {
		if err := json.Unmarshal(answer, &value); err != nil {
			return faultResult(fmt.Sprintf("decode answer: %v", err))
		}
	}

	if isEmpty(value) {
		return Result{Passed: false, Checks: make([]Check, 0), ScoreRunner: 0}
	}

	if text, ok := value.(string); ok && hasInternalLineBreak(text) {
		return tableResult(text)
	}

	return Result{
		Passed:      true,
		Checks:      []Check{{Name: "non_empty_submission", Passed: true}},
		ScoreRunner: 100,
	}
}

// hasInternalLineBreak reports whether the text contains a line break
// other than a trailing one. A single-line value ending in a newline is
// still a scalar answer, not a table.
func hasInternalLineBreak(text string) bool {
	return strings.ContainsRune(strings.TrimRight(text, "\r\n"), '\n')
}

func tableResult(text string) Result {
	reader := csv.NewReader(strings.NewReader(text))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return faultResult(fmt.Sprintf("parse table: %v", err))
	}

	// The first record is the header row.
	rows := len(records) - 1
	if rows < 0 {
		rows = 0
	}

	passed := rows > 0
	return Result{
		Passed:      passed,
		Checks:      []Check{{Name: "rows_present", Passed: passed, Rows: &rows}},
		ScoreRunner: passScore(passed),
	}
}

func faultResult(detail string) Result {
	return Result{
		Passed:      false,
		Checks:      []Check{{Name: "internal_error", Passed: false, Error: detail}},
		ScoreRunner: 0,
	}
}

func passScore(passed bool) float64 {
	if passed {
		return 100
	}
	return 0
}

// isEmpty mirrors the emptiness rules for decoded JSON values: null, "",
// false, 0, [] and {} all count as no answer.
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}
