package clinic

import "time"

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func boolField(data map[string]interface{}, key string, fallback bool) bool {
	b, ok := data[key].(bool)
	if !ok {
		return fallback
	}
	return b
}

// timeField accepts native timestamps and RFC 3339 strings written by
// older clients.
func timeField(data map[string]interface{}, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func optionalTimeField(data map[string]interface{}, key string) *time.Time {
	t := timeField(data, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// dateField normalizes a calendar date stored either as text or as a
// timestamp.
func dateField(data map[string]interface{}, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(DateLayout)
	}
	return ""
}
