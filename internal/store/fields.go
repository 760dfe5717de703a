package store

import "time"

// String returns the string field key, or "".
func (d *Document) String(key string) string {
	if s, ok := d.Frontmatter[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the integer field key, or 0.
func (d *Document) Int(key string) int {
	switch n := d.Frontmatter[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Strings returns the string list field key.
func (d *Document) Strings(key string) []string {
	arr, ok := d.Frontmatter[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Time returns the RFC 3339 timestamp field key, or the zero time.
func (d *Document) Time(key string) time.Time {
	switch t := d.Frontmatter[key].(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// FormatTime formats t for frontmatter storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
