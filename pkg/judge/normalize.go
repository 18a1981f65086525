package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Accepted key aliases per result field, primary key first. A present
// primary key always wins, even when its value is null.
var (
	scoreKeys        = []string{"score", "grade"}
	verdictKeys      = []string{"verdict", "summary"}
	mistakesKeys     = []string{"mistakes", "errors"}
	improvementsKeys = []string{"improvements", "advice"}
	citationsKeys    = []string{"citations"}
)

// normalize maps an extracted object onto the fixed Result schema: the
// score is coerced to a number and clamped to [0,100], the verdict to a
// string, and each list field to a non-nil string slice. The caller
// attaches the debug bag afterwards.
func normalize(parsed map[string]interface{}) Result {
	return Result{
		Score:        clamp(toNumber(firstPresent(parsed, scoreKeys))),
		Verdict:      toVerdict(firstPresent(parsed, verdictKeys)),
		Mistakes:     toList(firstPresent(parsed, mistakesKeys)),
		Improvements: toList(firstPresent(parsed, improvementsKeys)),
		Citations:    toList(firstPresent(parsed, citationsKeys)),
	}
}

func firstPresent(parsed map[string]interface{}, keys []string) interface{} {
	for _, key := range keys {
		if value, ok := parsed[key]; ok {
			return value
		}
	}
	return nil
}

func toNumber(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) {
			return 0
		}
		return parsed
	}
	return 0
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

func toVerdict(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return stringify(value)
}

func toList(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return make([]string, 0)
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, stringify(item))
		}
		return items
	}
	// A bare scalar wraps into a one-element list.
	return []string{stringify(value)}
}

func stringify(value interface{}) string {
	if text, ok := value.(string); ok {
		return text
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
