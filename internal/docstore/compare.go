package docstore

import (
	"strings"
	"time"
)

// compareValues orders two field values the way the document database does
// for same-typed values. ok is false when the values are not comparable.
func compareValues(a, b interface{}) (c int, ok bool) {
	if fa, isNum := toFloat(a); isNum {
		fb, isNum := toFloat(b)
		if !isNum {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}

	switch va := a.(type) {
	case string:
		vb, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case time.Time:
		vb, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return va.Compare(vb), true
	case bool:
		vb, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case !va:
			return -1, true
		}
		return 1, true
	case nil:
		if b == nil {
			return 0, true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func matches(data map[string]interface{}, f Filter) bool {
	v, present := data[f.Field]
	if !present {
		return false
	}
	c, ok := compareValues(v, f.Value)
	if f.Op == OpNotEqual {
		return !ok || c != 0
	}
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		return c == 0
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	}
	return false
}
