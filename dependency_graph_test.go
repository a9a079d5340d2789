package pagekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func layoutFields() []FieldDefinition {
	return []FieldDefinition{
		{Key: "layout", Type: FieldTypeSelect, Label: "Layout", Options: []FieldOption{{Label: "Grid", Value: "grid"}, {Label: "List", Value: "list"}}},
		{Key: "columns", Type: FieldTypeNumber, Label: "Columns",
			Conditional: &Condition{Property: "layout", Operator: OperatorEquals, Value: "grid"}},
		{Key: "gap", Type: FieldTypeSpacing, Label: "Gap",
			Conditional:  &Condition{Property: "columns", Operator: OperatorGreaterThan, Value: 1},
			DisabledWhen: &Condition{Property: "layout", Operator: OperatorEquals, Value: "list"}},
		{Key: "caption", Type: FieldTypeText, Label: "Caption",
			RequiredWhen: &Condition{Property: "layout", Operator: OperatorEquals, Value: "list"}},
	}
}

func TestDependencyGraphAffectedFields(t *testing.T) {
	g := BuildDependencyGraph(layoutFields())

	assert.Equal(t, []FieldKey{"columns", "gap", "caption"}, g.AffectedFields("layout"))
	assert.Equal(t, []FieldKey{"gap"}, g.AffectedFields("columns"))
	assert.Nil(t, g.AffectedFields("caption"))
	assert.Nil(t, g.AffectedFields("unknown"))
	assert.Equal(t, []FieldKey{"layout", "columns"}, g.Sources())

	affected := g.AffectedFields("layout")
	affected[0] = "mutated"
	assert.Equal(t, FieldKey("columns"), g.AffectedFields("layout")[0])
}

func TestDependencyGraphSingleHop(t *testing.T) {
	g := BuildDependencyGraph(layoutFields())

	// columns is hidden for list layouts but keeps its value, so gap still
	// evaluates against it.
	values := ValueSet{"layout": "list", "columns": 3}
	assert.False(t, g.IsVisible("columns", values))
	assert.True(t, g.IsVisible("gap", values))
	assert.False(t, g.IsEnabled("gap", values))
}

func TestDependencyGraphStates(t *testing.T) {
	g := BuildDependencyGraph(layoutFields())

	grid := ValueSet{"layout": "grid", "columns": 2}
	assert.Equal(t, []FieldState{
		{Key: "layout", Visible: true, Required: false, Enabled: true},
		{Key: "columns", Visible: true, Required: false, Enabled: true},
		{Key: "gap", Visible: true, Required: false, Enabled: true},
		{Key: "caption", Visible: true, Required: false, Enabled: true},
	}, g.States(grid))

	list := ValueSet{"layout": "list"}
	assert.True(t, g.IsRequired("caption", list))
	assert.False(t, g.IsRequired("unknown", list))
	assert.True(t, g.IsVisible("unknown", list))

	visible := g.VisibleFields(list)
	keys := make([]FieldKey, 0, len(visible))
	for _, f := range visible {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []FieldKey{"layout", "caption"}, keys)
}

func TestDependencyGraphDeduplicatesEdges(t *testing.T) {
	g := BuildDependencyGraph([]FieldDefinition{
		{Key: "mode", Type: FieldTypeText},
		{Key: "detail", Type: FieldTypeText,
			Conditional:  &Condition{Property: "mode", Operator: OperatorNotEmpty},
			RequiredWhen: &Condition{Property: "mode", Operator: OperatorEquals, Value: "strict"}},
	})
	assert.Equal(t, []FieldKey{"detail"}, g.AffectedFields("mode"))
}

func TestDependencyGraphIconVisibility(t *testing.T) {
	g := BuildDependencyGraph([]FieldDefinition{
		{Key: "hasIcon", Type: FieldTypeBoolean},
		{Key: "iconType", Type: FieldTypeIcon,
			Conditional: &Condition{Property: "hasIcon", Operator: OperatorEquals, Value: true}},
	})

	assert.False(t, g.IsVisible("iconType", ValueSet{"hasIcon": false}))
	assert.True(t, g.IsVisible("iconType", ValueSet{"hasIcon": true}))
	assert.False(t, g.IsVisible("iconType", ValueSet{}))
	assert.Equal(t, []FieldKey{"iconType"}, g.AffectedFields("hasIcon"))
}

func TestDependencyGraphRequiredRule(t *testing.T) {
	g := BuildDependencyGraph([]FieldDefinition{
		{Key: "alt", Type: FieldTypeText, ValidationRules: []ValidationRule{{Type: RuleRequired}}},
	})
	assert.True(t, g.IsRequired("alt", ValueSet{}))
}
