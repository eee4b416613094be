// Package json normalizes JSON produced by language models.
//
// Models return tool arguments that are usually, but not always, valid JSON:
// fenced in markdown, wrapped in commentary, or missing a closing brace.
// NormalizeArguments turns such payloads into a canonical JSON object. It
// never decides whether the arguments are acceptable; schema validation
// happens afterwards in the tools package.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNotObject is returned when the payload is valid JSON but not an object.
var ErrNotObject = errors.New("arguments must be a JSON object")

// NormalizeArguments returns raw as a compact JSON object.
//
// Empty input is treated as "{}". Syntactically broken input is repaired
// with jsonrepair before giving up.
func NormalizeArguments(raw []byte) (json.RawMessage, error) {
	text := stripMarkdownCodeBlocks(string(raw))
	if text == "" {
		return json.RawMessage("{}"), nil
	}

	candidate, err := parseObject(text)
	if err == nil {
		return candidate, nil
	}
	if errors.Is(err, ErrNotObject) {
		return nil, err
	}

	// Commentary around an object: take the outermost braces.
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && end > start {
		if candidate, err := parseObject(text[start : end+1]); err == nil {
			return candidate, nil
		}
	}

	repaired, repairErr := jsonrepair.JSONRepair(text)
	if repairErr != nil {
		return nil, fmt.Errorf("malformed arguments %q: %w", preview(text), repairErr)
	}
	candidate, err = parseObject(repaired)
	if err != nil {
		return nil, fmt.Errorf("malformed arguments %q: %w", preview(text), err)
	}
	return candidate, nil
}

// parseObject checks that text is a JSON object and compacts it.
func parseObject(text string) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	if _, ok := v.(map[string]interface{}); !ok {
		return nil, ErrNotObject
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// stripMarkdownCodeBlocks removes ```json fences around a payload.
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}

	return trimmed
}

func preview(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
