package pagekit

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Evaluate reports whether cond holds for the given value set.
//
// Operators:
//   - equals/not_equals compare strictly (numbers compare by value across Go numeric types)
//   - contains/not_contains stringify both operands and test for a substring
//   - greater_than/less_than/greater_equal/less_equal coerce both sides with a
//     parseFloat-style parse; a NaN on either side makes the comparison false
//   - in/not_in test membership in cond.Values; without Values, in is false and not_in is true
//   - empty/not_empty treat an absent key, nil and "" as empty
//
// An unknown operator falls back to equals.
func Evaluate(cond Condition, values ValueSet) bool {
	actual, present := values[cond.Property]
	if !present {
		actual = nil
	}

	switch NormalizeOperator(string(cond.Operator)) {
	case OperatorEquals:
		return strictEqual(actual, cond.Value)
	case OperatorNotEquals:
		return !strictEqual(actual, cond.Value)
	case OperatorContains:
		return strings.Contains(stringify(actual), stringify(cond.Value))
	case OperatorNotContains:
		return !strings.Contains(stringify(actual), stringify(cond.Value))
	case OperatorGreaterThan:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a > b })
	case OperatorLessThan:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a < b })
	case OperatorGreaterEqual:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a >= b })
	case OperatorLessEqual:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a <= b })
	case OperatorIn:
		if cond.Values == nil {
			return false
		}
		return containsValue(cond.Values, actual)
	case OperatorNotIn:
		if cond.Values == nil {
			return true
		}
		return !containsValue(cond.Values, actual)
	case OperatorEmpty:
		return IsEmpty(actual)
	case OperatorNotEmpty:
		return !IsEmpty(actual)
	default:
		return strictEqual(actual, cond.Value)
	}
}

// IsEmpty implements three-way emptiness: nil, "" (and the absent key, which
// callers pass as nil).
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

func compareNumbers(a, b any, cmp func(a, b float64) bool) bool {
	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return cmp(x, y)
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if strictEqual(item, v) {
			return true
		}
	}
	return false
}

// strictEqual compares without string/number coercion. Numeric values of
// different Go types (int vs float64 after JSON or YAML decoding) compare by value.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := numericValue(a); ok {
		if y, ok := numericValue(b); ok {
			return x == y
		}
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	switch a.(type) {
	case string, bool:
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func numericValue(v any) (float64, bool) {
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
	}
	return 0, false
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ToNumber coerces v to a float64 the way a UI parseFloat would: numbers pass
// through, strings yield their leading numeric prefix ("12px" -> 12), and
// everything else (including "", nil and booleans) yields NaN.
func ToNumber(v any) float64 {
	if n, ok := numericValue(v); ok {
		return n
	}
	s, ok := v.(string)
	if !ok {
		return math.NaN()
	}
	s = strings.TrimSpace(s)
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	prefix := leadingNumber.FindString(s)
	if prefix == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// stringify renders a value the way a form input displays it. nil renders as "".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	}
	if n, ok := numericValue(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	if m, ok := v.(map[string]any); ok {
		if data, err := json.Marshal(m); err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}
