package pagekit

import (
	"fmt"
	"sort"
	"strings"
)

// FieldGroup is a titled section of a component's property panel.
type FieldGroup struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Order int    `json:"order,omitempty" yaml:"order,omitempty"`
}

// ComponentSchema is the editable surface of one component type.
type ComponentSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Category    string            `json:"category,omitempty" yaml:"category,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Version     int               `json:"version,omitempty" yaml:"version,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
	Groups      []FieldGroup      `json:"groups,omitempty" yaml:"groups,omitempty"`
	Presets     []Preset          `json:"presets,omitempty" yaml:"presets,omitempty"`
}

// Field looks up a field definition by key.
func (s *ComponentSchema) Field(key FieldKey) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// FieldKeys returns the declared keys in declaration order.
func (s *ComponentSchema) FieldKeys() []FieldKey {
	keys := make([]FieldKey, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Preset looks up a preset by key.
func (s *ComponentSchema) Preset(key string) (Preset, bool) {
	for _, p := range s.Presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}

// Defaults returns a value set holding every declared default.
func (s *ComponentSchema) Defaults() ValueSet {
	values := ValueSet{}
	for _, f := range s.Fields {
		if f.Default != nil {
			values[f.Key] = cloneValue(f.Default)
		}
	}
	return values
}

// groupOrder returns the position of each group key; undeclared groups sort last.
func (s *ComponentSchema) groupOrder() map[string]int {
	order := make(map[string]int, len(s.Groups))
	for i, g := range s.Groups {
		rank := g.Order
		if rank == 0 {
			rank = i + 1
		}
		order[g.Key] = rank
	}
	return order
}

// SortFields orders fields by group rank, then Order, then declaration order.
func (s *ComponentSchema) SortFields(fields []FieldDefinition) []FieldDefinition {
	out := append([]FieldDefinition(nil), fields...)
	ranks := s.groupOrder()
	rank := func(group string) int {
		if r, ok := ranks[group]; ok {
			return r
		}
		return len(ranks) + 1
	}
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := rank(out[i].Group), rank(out[j].Group)
		if gi != gj {
			return gi < gj
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// Check verifies the schema is internally consistent: keys are unique and
// non-empty, field types are known, conditions reference declared fields,
// select fields carry options, and presets only set declared keys.
func (s *ComponentSchema) Check() error {
	var problems []string
	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "name is required")
	}

	seen := make(map[FieldKey]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Key == "" {
			problems = append(problems, fmt.Sprintf("fields[%d]: key is required", i))
			continue
		}
		if seen[f.Key] {
			problems = append(problems, fmt.Sprintf("field %q: duplicate key", f.Key))
		}
		seen[f.Key] = true
		if !f.Type.IsKnown() {
			problems = append(problems, fmt.Sprintf("field %q: unknown type %q", f.Key, f.Type))
		}
		if (f.Type == FieldTypeSelect || f.Type == FieldTypeMultiSelect) && len(f.Options) == 0 {
			problems = append(problems, fmt.Sprintf("field %q: select fields need options", f.Key))
		}
	}

	for _, f := range s.Fields {
		for name, cond := range map[string]*Condition{
			"conditional":  f.Conditional,
			"requiredWhen": f.RequiredWhen,
			"disabledWhen": f.DisabledWhen,
		} {
			if cond == nil {
				continue
			}
			if cond.Property == f.Key {
				problems = append(problems, fmt.Sprintf("field %q: %s refers to itself", f.Key, name))
			} else if !seen[cond.Property] {
				problems = append(problems, fmt.Sprintf("field %q: %s refers to unknown field %q", f.Key, name, cond.Property))
			}
		}
	}

	for _, p := range s.Presets {
		for key := range p.Values {
			if !seen[key] {
				problems = append(problems, fmt.Sprintf("preset %q: unknown field %q", p.Key, key))
			}
		}
		for bp := range p.Styles {
			if !bp.Valid() {
				problems = append(problems, fmt.Sprintf("preset %q: unknown breakpoint %q", p.Key, bp))
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return NewSchemaInvalidError(s.Name, problems)
	}
	return nil
}
