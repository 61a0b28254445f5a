package prompt

import (
	"encoding/json"
	"regexp"
	"strings"
)

var quotedItemRe = regexp.MustCompile(`"([^"]+)"`)

// checkboxParser attempts one decoding strategy on the raw model output.
// It reports ok=false when the strategy does not apply, so the next one
// in the chain gets a chance.
type checkboxParser func(raw string) (items []string, ok bool)

// checkboxParsers is the ordered fallback chain for multi-choice
// answers. Models do not always honor the requested JSON-array format,
// so a strict parse is followed by progressively looser ones.
var checkboxParsers = []checkboxParser{
	parseJSONArray,
	parseQuotedItems,
	parseCommaList,
	parseLineList,
}

// ParseFieldResponse normalizes a raw model answer for one field type.
// Checkbox answers come back as a list, everything else as a trimmed
// string. A sentinel answer maps to the empty form of either shape.
func ParseFieldResponse(raw string, isCheckbox bool) (string, []string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Contains(strings.ToLower(trimmed), "not specified") {
		if isCheckbox {
			return "", []string{}
		}
		return "", nil
	}

	if !isCheckbox {
		return trimmed, nil
	}

	for _, parse := range checkboxParsers {
		if items, ok := parse(trimmed); ok {
			return "", items
		}
	}
	return "", []string{}
}

func parseJSONArray(raw string) ([]string, bool) {
	var parsed []any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	items := make([]string, 0, len(parsed))
	for _, item := range parsed {
		if s, ok := item.(string); ok {
			items = append(items, s)
		}
	}
	return items, true
}

func parseQuotedItems(raw string) ([]string, bool) {
	matches := quotedItemRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, false
	}
	items := make([]string, 0, len(matches))
	for _, m := range matches {
		items = append(items, m[1])
	}
	return items, true
}

func parseCommaList(raw string) ([]string, bool) {
	if !strings.Contains(raw, ",") {
		return nil, false
	}
	return splitAndTrim(raw, ","), true
}

func parseLineList(raw string) ([]string, bool) {
	if !strings.Contains(raw, "\n") {
		return nil, false
	}
	out := make([]string, 0, 4)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out, true
}

func splitAndTrim(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
