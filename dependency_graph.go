package pagekit

// DependencyGraph maps a source field to the fields whose visibility, requiredness
// or enabled state depends on it. It is built once per schema and never mutated.
//
// Only one hop is modeled: a field depends on the property named by its own
// conditions, not on what that property in turn depends on.
type DependencyGraph struct {
	dependents map[FieldKey][]FieldKey
	fields     map[FieldKey]FieldDefinition
	order      []FieldKey
}

// BuildDependencyGraph scans every field's conditions and records the field as
// a dependent of each condition's property.
func BuildDependencyGraph(fields []FieldDefinition) *DependencyGraph {
	g := &DependencyGraph{
		dependents: make(map[FieldKey][]FieldKey),
		fields:     make(map[FieldKey]FieldDefinition, len(fields)),
		order:      make([]FieldKey, 0, len(fields)),
	}
	for _, f := range fields {
		g.fields[f.Key] = f
		g.order = append(g.order, f.Key)
		for _, cond := range []*Condition{f.Conditional, f.RequiredWhen, f.DisabledWhen} {
			if cond == nil || cond.Property == "" {
				continue
			}
			g.addEdge(cond.Property, f.Key)
		}
	}
	return g
}

func (g *DependencyGraph) addEdge(source, target FieldKey) {
	for _, existing := range g.dependents[source] {
		if existing == target {
			return
		}
	}
	g.dependents[source] = append(g.dependents[source], target)
}

// AffectedFields returns the fields to re-evaluate after changedKey changes.
func (g *DependencyGraph) AffectedFields(changedKey FieldKey) []FieldKey {
	deps := g.dependents[changedKey]
	if len(deps) == 0 {
		return nil
	}
	return append([]FieldKey(nil), deps...)
}

// Sources returns every field that at least one other field depends on.
func (g *DependencyGraph) Sources() []FieldKey {
	var out []FieldKey
	for _, key := range g.order {
		if len(g.dependents[key]) > 0 {
			out = append(out, key)
		}
	}
	return out
}

// IsVisible is true when the field has no conditional or its conditional holds.
// Unknown fields are reported visible.
func (g *DependencyGraph) IsVisible(fieldKey FieldKey, values ValueSet) bool {
	f, ok := g.fields[fieldKey]
	if !ok || f.Conditional == nil {
		return true
	}
	return Evaluate(*f.Conditional, values)
}

// IsRequired combines the static requirement (see RequiresValue) with requiredWhen.
func (g *DependencyGraph) IsRequired(fieldKey FieldKey, values ValueSet) bool {
	f, ok := g.fields[fieldKey]
	if !ok {
		return false
	}
	if f.RequiresValue() {
		return true
	}
	return f.RequiredWhen != nil && Evaluate(*f.RequiredWhen, values)
}

// IsEnabled is false while the field's disabledWhen condition holds.
func (g *DependencyGraph) IsEnabled(fieldKey FieldKey, values ValueSet) bool {
	f, ok := g.fields[fieldKey]
	if !ok || f.DisabledWhen == nil {
		return true
	}
	return !Evaluate(*f.DisabledWhen, values)
}

// VisibleFields returns the visible definitions in declaration order.
func (g *DependencyGraph) VisibleFields(values ValueSet) []FieldDefinition {
	out := make([]FieldDefinition, 0, len(g.order))
	for _, key := range g.order {
		if g.IsVisible(key, values) {
			out = append(out, g.fields[key])
		}
	}
	return out
}

// FieldState is the evaluated UI state of one field.
type FieldState struct {
	Key      FieldKey `json:"key"`
	Visible  bool     `json:"visible"`
	Required bool     `json:"required"`
	Enabled  bool     `json:"enabled"`
}

// States evaluates every field against values.
func (g *DependencyGraph) States(values ValueSet) []FieldState {
	out := make([]FieldState, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, FieldState{
			Key:      key,
			Visible:  g.IsVisible(key, values),
			Required: g.IsRequired(key, values),
			Enabled:  g.IsEnabled(key, values),
		})
	}
	return out
}
