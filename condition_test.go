package pagekit

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEvaluate(t *testing.T) {
	values := ValueSet{
		"variant": "primary",
		"count":   3,
		"width":   "120px",
		"title":   "Hello world",
		"empty":   "",
		"enabled": true,
		"price":   float64(3),
		"tags":    []any{"a", "b"},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals string", Condition{Property: "variant", Operator: OperatorEquals, Value: "primary"}, true},
		{"equals is strict across kinds", Condition{Property: "count", Operator: OperatorEquals, Value: "3"}, false},
		{"equals numbers across go types", Condition{Property: "count", Operator: OperatorEquals, Value: float64(3)}, true},
		{"equals bool", Condition{Property: "enabled", Operator: OperatorEquals, Value: true}, true},
		{"equals absent vs nil", Condition{Property: "missing", Operator: OperatorEquals, Value: nil}, true},
		{"not equals", Condition{Property: "variant", Operator: OperatorNotEquals, Value: "ghost"}, true},
		{"contains substring", Condition{Property: "title", Operator: OperatorContains, Value: "world"}, true},
		{"contains stringifies numbers", Condition{Property: "count", Operator: OperatorContains, Value: 3}, true},
		{"contains on absent key", Condition{Property: "missing", Operator: OperatorContains, Value: "x"}, false},
		{"contains empty needle on absent key", Condition{Property: "missing", Operator: OperatorContains, Value: ""}, true},
		{"not contains", Condition{Property: "title", Operator: OperatorNotContains, Value: "bye"}, true},
		{"greater than parses prefix", Condition{Property: "width", Operator: OperatorGreaterThan, Value: 100}, true},
		{"less than", Condition{Property: "count", Operator: OperatorLessThan, Value: "10"}, true},
		{"greater equal", Condition{Property: "price", Operator: OperatorGreaterEqual, Value: 3}, true},
		{"less equal", Condition{Property: "price", Operator: OperatorLessEqual, Value: 2}, false},
		{"NaN comparison is false", Condition{Property: "variant", Operator: OperatorGreaterThan, Value: 0}, false},
		{"NaN comparison on absent key", Condition{Property: "missing", Operator: OperatorLessThan, Value: 10}, false},
		{"in", Condition{Property: "variant", Operator: OperatorIn, Values: []any{"primary", "secondary"}}, true},
		{"in without values", Condition{Property: "variant", Operator: OperatorIn}, false},
		{"not in", Condition{Property: "variant", Operator: OperatorNotIn, Values: []any{"ghost"}}, true},
		{"not in without values", Condition{Property: "variant", Operator: OperatorNotIn}, true},
		{"empty string", Condition{Property: "empty", Operator: OperatorEmpty}, true},
		{"empty absent", Condition{Property: "missing", Operator: OperatorEmpty}, true},
		{"false is not empty", Condition{Property: "enabled", Operator: OperatorEmpty}, false},
		{"not empty", Condition{Property: "title", Operator: OperatorNotEmpty}, true},
		{"alias gt", Condition{Property: "count", Operator: "gt", Value: 2}, true},
		{"unknown operator falls back to equals", Condition{Property: "variant", Operator: "matches", Value: "primary"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.cond, values))
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{12, 12},
		{int64(-4), -4},
		{float32(1.5), 1.5},
		{"12px", 12},
		{"  3.25rem", 3.25},
		{"-0.5", -0.5},
		{".5", 0.5},
		{"1e3", 1000},
		{"Infinity", math.Inf(1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToNumber(tt.in), "input %v", tt.in)
	}

	for _, in := range []any{"", "px12", nil, true, []any{1}} {
		assert.True(t, math.IsNaN(ToNumber(in)), "input %v", in)
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "1.5", stringify(1.5))
	assert.Equal(t, "3", stringify(3))
	assert.Equal(t, "a,2", stringify([]any{"a", 2}))
	assert.Equal(t, `{"k":"v"}`, stringify(map[string]any{"k": "v"}))
}

func TestOperatorDecoding(t *testing.T) {
	var fromJSON Condition
	require.NoError(t, json.Unmarshal([]byte(`{"property":"a","operator":"GTE","value":1}`), &fromJSON))
	assert.Equal(t, OperatorGreaterEqual, fromJSON.Operator)

	var fromYAML Condition
	require.NoError(t, yaml.Unmarshal([]byte("property: a\noperator: is_empty\n"), &fromYAML))
	assert.Equal(t, OperatorEmpty, fromYAML.Operator)

	assert.Equal(t, Operator("custom_op"), NormalizeOperator(" custom_op "))
}
