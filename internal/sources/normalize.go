package sources

import (
	"strconv"
	"strings"
	"time"
)

// EmployeeBucket maps an employee count to the standard size bucket. Zero
// and negative counts fall into the smallest bucket.
func EmployeeBucket(employees int) string {
	switch {
	case employees <= 10:
		return "1-10"
	case employees <= 50:
		return "11-50"
	case employees <= 250:
		return "51-250"
	case employees <= 1000:
		return "251-1000"
	default:
		return "1000+"
	}
}

// RevenueBucket maps annual revenue in dollars to the standard range bucket.
func RevenueBucket(revenue float64) string {
	switch {
	case revenue <= 1_000_000:
		return "$0-$1M"
	case revenue <= 10_000_000:
		return "$1M-$10M"
	case revenue <= 100_000_000:
		return "$10M-$100M"
	case revenue <= 1_000_000_000:
		return "$100M-$1B"
	default:
		return "$1B+"
	}
}

// lookupPath resolves a dotted path with optional array indexes against a
// decoded JSON object, e.g. "properties.funding_rounds[0].value".
func lookupPath(record map[string]any, path string) (any, bool) {
	var current any = record
	for _, segment := range strings.Split(path, ".") {
		key, index, indexed := splitIndex(segment)
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
		if indexed {
			list, ok := current.([]any)
			if !ok || index < 0 || index >= len(list) {
				return nil, false
			}
			current = list[index]
		}
	}
	return current, true
}

// splitIndex parses "field[2]" into ("field", 2, true).
func splitIndex(segment string) (string, int, bool) {
	open := strings.IndexByte(segment, '[')
	if open < 0 || !strings.HasSuffix(segment, "]") {
		return segment, 0, false
	}
	index, err := strconv.Atoi(segment[open+1 : len(segment)-1])
	if err != nil {
		return segment, 0, false
	}
	return segment[:open], index, true
}

func pathString(record map[string]any, path string) string {
	value, ok := lookupPath(record, path)
	if !ok {
		return ""
	}
	return asString(value)
}

func pathInt(record map[string]any, path string) int {
	value, ok := lookupPath(record, path)
	if !ok {
		return 0
	}
	return int(asFloat(value))
}

func pathFloat(record map[string]any, path string) float64 {
	value, ok := lookupPath(record, path)
	if !ok {
		return 0
	}
	return asFloat(value)
}

func pathStrings(record map[string]any, path string) []string {
	value, ok := lookupPath(record, path)
	if !ok {
		return nil
	}
	list, ok := value.([]any)
	if !ok {
		if s := asString(value); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func pathTime(record map[string]any, path string) time.Time {
	raw := pathString(record, path)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// DedupeKey identifies a lead for cross-provider deduplication.
func DedupeKey(name, website string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(website))
}
