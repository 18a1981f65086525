package jsonextract

import (
	"encoding/json"
	"strings"
)

// Extract recovers a JSON object from free-form model output. Reasoning
// models frequently wrap the object in prose, markdown fences or stray
// tokens, so the whole text is parsed first and a brace-level scan is used
// as fallback. When several complete objects are present the last one wins.
// Returns false when no parseable object exists anywhere in the text.
func Extract(text string) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	if obj, ok := parseObject(trimmed); ok {
		return obj, true
	}

	blocks := topLevelBlocks(trimmed)
	for i := len(blocks) - 1; i >= 0; i-- {
		if obj, ok := parseObject(blocks[i]); ok {
			return obj, true
		}
	}

	// An unclosed brace earlier in the text swallows everything after it
	// during the block scan, so retry from each opening brace directly.
	for i := len(trimmed) - 1; i >= 0; i-- {
		if trimmed[i] != '{' {
			continue
		}
		block, ok := balancedFrom(trimmed, i)
		if !ok {
			continue
		}
		if obj, ok := parseObject(block); ok {
			return obj, true
		}
	}

	return nil, false
}

func parseObject(s string) (map[string]interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// topLevelBlocks collects every balanced {...} block that opens at brace
// depth zero. String contents are tracked inside blocks so braces within
// JSON strings do not affect the depth; quotes outside a block are ignored
// because prose quoting is rarely balanced.
func topLevelBlocks(s string) []string {
	var blocks []string
	depth := 0
	start := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					blocks = append(blocks, s[start:i+1])
				}
			}
		}
	}

	return blocks
}

func balancedFrom(s string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
