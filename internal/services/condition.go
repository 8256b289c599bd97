package services

import (
	"fmt"
	"strings"
	"time"

	"nexcrm/internal/models"
)

// MatchesConditions AND-reduces the condition list against the record,
// short-circuiting on the first failure. An empty list matches every record.
// Evaluation is total: missing fields and incomparable operand types resolve
// to "no match" rather than an error.
func MatchesConditions(rec *Record, conds []models.Condition) bool {
	for _, c := range conds {
		if !matchCondition(rec, c) {
			return false
		}
	}
	return true
}

func matchCondition(rec *Record, c models.Condition) bool {
	if rec == nil {
		return false
	}
	fieldValue, ok := rec.Fields[c.Field]
	if !ok || fieldValue == nil {
		return false
	}

	switch c.Operator {
	case models.OperatorEquals:
		return looseEquals(fieldValue, c.Value)
	case models.OperatorNotEquals:
		return !looseEquals(fieldValue, c.Value)
	case models.OperatorContains:
		return containsValue(fieldValue, c.Value)
	case models.OperatorGreaterThan:
		cmp, ok := compareOrdered(fieldValue, c.Value)
		return ok && cmp > 0
	case models.OperatorLessThan:
		cmp, ok := compareOrdered(fieldValue, c.Value)
		return ok && cmp < 0
	default:
		return false
	}
}

// looseEquals compares by value, not type: numbers of any width compare
// numerically, strings compare case-insensitively, everything else falls back
// to the case-folded printed form.
func looseEquals(a, b any) bool {
	if fa, aok := toFloat(a); aok {
		if fb, bok := toFloat(b); bok {
			return fa == fb
		}
	}
	if ba, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			return ba == bb
		}
	}
	return strings.EqualFold(stringify(a), stringify(b))
}

// containsValue reports whether a string-like field value includes the
// condition value as a substring, case-insensitively. Non-string field values
// never match.
func containsValue(fieldValue, condValue any) bool {
	s, ok := stringValue(fieldValue)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(stringify(condValue)))
}

// compareOrdered orders two values when they are mutually comparable: both
// numeric, both strings (case-insensitive lexicographic) or both times.
// The second return is false when no ordering exists.
func compareOrdered(a, b any) (int, bool) {
	if fa, aok := toFloat(a); aok {
		if fb, bok := toFloat(b); bok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if ta, aok := toTime(a); aok {
		if tb, bok := toTime(b); bok {
			switch {
			case ta.Before(tb):
				return -1, true
			case ta.After(tb):
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	sa, aok := stringValue(a)
	sb, bok := stringValue(b)
	if aok && bok {
		return strings.Compare(strings.ToLower(sa), strings.ToLower(sb)), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

func stringify(v any) string {
	if s, ok := stringValue(v); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
