package catalog

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// absent values as they appear in the raw export
func isAbsent(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "None", "[]":
		return true
	}
	return false
}

// ParseListField tolerantly parses a JSON-encoded list column. The raw
// export mixes JSON arrays, python-literal arrays with single quotes,
// and bare strings; null/None/[]/"" all mean absent.
func ParseListField(value string) []string {
	s := strings.TrimSpace(value)
	if isAbsent(s) {
		return nil
	}

	if items, ok := parseJSONList(s); ok {
		return items
	}
	if items, ok := parsePythonList(s); ok {
		return items
	}
	return []string{s}
}

func parseJSONList(s string) ([]string, bool) {
	var list []any
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		return stringify(list), true
	}
	var single any
	if err := json.Unmarshal([]byte(s), &single); err == nil {
		if single == nil {
			return nil, true
		}
		return stringify([]any{single}), true
	}
	return nil, false
}

// parsePythonList handles ['a', 'b'] style literals by rewriting the
// single quotes to double quotes when that is unambiguous.
func parsePythonList(s string) ([]string, bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, false
	}
	if strings.Contains(s, `"`) {
		return nil, false
	}
	rewritten := strings.ReplaceAll(s, `'`, `"`)
	var list []any
	if err := json.Unmarshal([]byte(rewritten), &list); err != nil {
		return nil, false
	}
	return stringify(list), true
}

func stringify(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			b, _ := json.Marshal(v)
			out = append(out, string(b))
		}
	}
	return out
}

// parseInt coerces a numeric string; failure means absent.
func parseInt(s string) *int {
	if isAbsent(s) {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

// parseFloat coerces a numeric string; failure means absent.
func parseFloat(s string) *float64 {
	if isAbsent(s) {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// CamelToReadable turns "gynecologyAndObstetrics" into
// "Gynecology and Obstetrics" for document text.
func CamelToReadable(name string) string {
	spaced := camelBoundary.ReplaceAllString(name, "$1 $2")
	words := strings.Fields(spaced)
	for i, w := range words {
		if strings.EqualFold(w, "and") {
			words[i] = "and"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
