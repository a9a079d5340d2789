package pagekit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldKey names one editable attribute of a component.
type FieldKey = string

// ValueSet is the live state edited by the user: field key -> value.
// An absent key is "undefined"; a nil value is "null".
type ValueSet map[FieldKey]any

// Clone returns a deep copy of the value set.
func (v ValueSet) Clone() ValueSet {
	if v == nil {
		return ValueSet{}
	}
	out := make(ValueSet, len(v))
	for k, val := range v {
		out[k] = cloneValue(val)
	}
	return out
}

// FieldType identifies the editor used for a field.
type FieldType string

const (
	FieldTypeString      FieldType = "string"
	FieldTypeText        FieldType = "text"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeNumber      FieldType = "number"
	FieldTypeRange       FieldType = "range"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multi_select"
	FieldTypeColor       FieldType = "color"
	FieldTypeImage       FieldType = "image"
	FieldTypeIcon        FieldType = "icon"
	FieldTypeURL         FieldType = "url"
	FieldTypeEmail       FieldType = "email"
	FieldTypeSpacing     FieldType = "spacing"
	FieldTypeBorder      FieldType = "border"
	FieldTypeShadow      FieldType = "shadow"
	FieldTypeTypography  FieldType = "typography"
	FieldTypeJSON        FieldType = "json"
)

// ValueKind is the runtime shape a field value is expected to have.
type ValueKind string

const (
	ValueKindString  ValueKind = "string"
	ValueKindNumber  ValueKind = "number"
	ValueKindBoolean ValueKind = "boolean"
	ValueKindArray   ValueKind = "array"
	ValueKindObject  ValueKind = "object"
	ValueKindAny     ValueKind = "any"
)

// ValueKind maps the editor type to the value shape it produces.
// Style composites (spacing, border, shadow, typography) accept either a CSS
// shorthand string or a structured object. A json field holds any JSON value.
func (t FieldType) ValueKind() ValueKind {
	switch t {
	case FieldTypeString, FieldTypeText, FieldTypeTextarea, FieldTypeColor,
		FieldTypeImage, FieldTypeIcon, FieldTypeURL, FieldTypeEmail:
		return ValueKindString
	case FieldTypeNumber, FieldTypeRange:
		return ValueKindNumber
	case FieldTypeBoolean:
		return ValueKindBoolean
	case FieldTypeMultiSelect:
		return ValueKindArray
	case FieldTypeSelect, FieldTypeSpacing, FieldTypeBorder, FieldTypeShadow, FieldTypeTypography,
		FieldTypeJSON:
		return ValueKindAny
	default:
		return ValueKindAny
	}
}

// IsKnown reports whether t is one of the declared field types.
func (t FieldType) IsKnown() bool {
	switch t {
	case FieldTypeString, FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeRange,
		FieldTypeBoolean, FieldTypeSelect, FieldTypeMultiSelect, FieldTypeColor, FieldTypeImage,
		FieldTypeIcon, FieldTypeURL, FieldTypeEmail, FieldTypeSpacing, FieldTypeBorder,
		FieldTypeShadow, FieldTypeTypography, FieldTypeJSON:
		return true
	}
	return false
}

// FieldOption is one choice of a select field.
type FieldOption struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldDefinition describes one editable attribute. Immutable once the
// component schema is built.
type FieldDefinition struct {
	Key             FieldKey         `json:"key" yaml:"key"`
	Type            FieldType        `json:"type" yaml:"type"`
	Label           string           `json:"label" yaml:"label"`
	Description     string           `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder     string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required        bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Default         any              `json:"default,omitempty" yaml:"default,omitempty"`
	Options         []FieldOption    `json:"options,omitempty" yaml:"options,omitempty"`
	ValidationRules []ValidationRule `json:"validationRules,omitempty" yaml:"validationRules,omitempty"`
	Conditional     *Condition       `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	RequiredWhen    *Condition       `json:"requiredWhen,omitempty" yaml:"requiredWhen,omitempty"`
	DisabledWhen    *Condition       `json:"disabledWhen,omitempty" yaml:"disabledWhen,omitempty"`
	Group           string           `json:"group,omitempty" yaml:"group,omitempty"`
	Order           int              `json:"order,omitempty" yaml:"order,omitempty"`
}

// DisplayLabel returns the label, falling back to the key.
func (f FieldDefinition) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Key
}

// RequiresValue reports whether the field must be non-empty: either Required is
// set or the field carries a required rule of error severity.
func (f FieldDefinition) RequiresValue() bool {
	if f.Required {
		return true
	}
	for _, rule := range f.ValidationRules {
		if rule.Type == RuleRequired && (rule.Severity == "" || rule.Severity == SeverityError) {
			return true
		}
	}
	return false
}

// HasOption reports whether value matches one of the field's options.
func (f FieldDefinition) HasOption(value any) bool {
	for _, opt := range f.Options {
		if strictEqual(opt.Value, value) {
			return true
		}
	}
	return false
}

// Operator is a condition comparison operator.
type Operator string

const (
	OperatorEquals       Operator = "equals"
	OperatorNotEquals    Operator = "not_equals"
	OperatorContains     Operator = "contains"
	OperatorNotContains  Operator = "not_contains"
	OperatorGreaterThan  Operator = "greater_than"
	OperatorLessThan     Operator = "less_than"
	OperatorGreaterEqual Operator = "greater_equal"
	OperatorLessEqual    Operator = "less_equal"
	OperatorIn           Operator = "in"
	OperatorNotIn        Operator = "not_in"
	OperatorEmpty        Operator = "empty"
	OperatorNotEmpty     Operator = "not_empty"
)

var operatorAliases = map[string]Operator{
	"eq":           OperatorEquals,
	"ne":           OperatorNotEquals,
	"neq":          OperatorNotEquals,
	"gt":           OperatorGreaterThan,
	"lt":           OperatorLessThan,
	"gte":          OperatorGreaterEqual,
	"lte":          OperatorLessEqual,
	"is_empty":     OperatorEmpty,
	"is_not_empty": OperatorNotEmpty,
}

// NormalizeOperator maps short aliases ("gt", "is_empty", ...) to their
// canonical operator. Unknown strings are returned unchanged.
func NormalizeOperator(s string) Operator {
	s = strings.ToLower(strings.TrimSpace(s))
	if op, ok := operatorAliases[s]; ok {
		return op
	}
	return Operator(s)
}

// UnmarshalJSON accepts canonical names and aliases.
func (o *Operator) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = NormalizeOperator(s)
	return nil
}

// UnmarshalYAML accepts canonical names and aliases.
func (o *Operator) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*o = NormalizeOperator(s)
	return nil
}

// Condition is a predicate on one field of the current value set.
type Condition struct {
	Property FieldKey `json:"property" yaml:"property"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
	Values   []any    `json:"values,omitempty" yaml:"values,omitempty"`
}

// RuleType names a declarative validation rule.
type RuleType string

// A required rule marks its field as required (see RequiresValue) and supplies
// the message for an empty value. With warning or info severity it reports
// an empty value at that severity instead.
const (
	RuleRequired  RuleType = "required"
	RuleMinLength RuleType = "min_length"
	RuleMaxLength RuleType = "max_length"
	RuleMinValue  RuleType = "min_value"
	RuleMaxValue  RuleType = "max_value"
	RulePattern   RuleType = "pattern"
	RuleEmail     RuleType = "email"
	RuleURL       RuleType = "url"
	RuleCustom    RuleType = "custom"
)

// Severity decides which list of a ValidationResult a failed rule lands in.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Predicate is a custom validation check. It returns true when value is acceptable.
type Predicate func(value any, def FieldDefinition) bool

// ValidationRule is one declarative check on a field value.
type ValidationRule struct {
	Type     RuleType       `json:"type" yaml:"type"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Message  string         `json:"message,omitempty" yaml:"message,omitempty"`
	Severity Severity       `json:"severity,omitempty" yaml:"severity,omitempty"`
	// Predicate backs RuleCustom. When nil, the validator looks up a
	// registered predicate by Params["name"].
	Predicate Predicate `json:"-" yaml:"-"`
}

// ValidationResult is derived on demand and never persisted.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
	Infos    []string `json:"infos,omitempty"`
}

// Breakpoint is a responsive viewport tier.
type Breakpoint string

const (
	BreakpointMobile  Breakpoint = "mobile"
	BreakpointTablet  Breakpoint = "tablet"
	BreakpointDesktop Breakpoint = "desktop"
)

// Breakpoints lists the tiers from narrowest to widest. Desktop is the base.
var Breakpoints = []Breakpoint{BreakpointMobile, BreakpointTablet, BreakpointDesktop}

// Index returns the position of b in Breakpoints, or -1.
func (b Breakpoint) Index() int {
	for i, bp := range Breakpoints {
		if bp == b {
			return i
		}
	}
	return -1
}

// Valid reports whether b is a known breakpoint.
func (b Breakpoint) Valid() bool {
	return b.Index() >= 0
}

// StyleMap is a partial style declaration: style key -> value.
type StyleMap map[string]any

// BreakpointStyleMap holds the style overrides of each breakpoint.
type BreakpointStyleMap map[Breakpoint]StyleMap

// Clone returns a deep copy.
func (m BreakpointStyleMap) Clone() BreakpointStyleMap {
	out := make(BreakpointStyleMap, len(m))
	for bp, styles := range m {
		cp := make(StyleMap, len(styles))
		for k, v := range styles {
			cp[k] = cloneValue(v)
		}
		out[bp] = cp
	}
	return out
}

// Preset is a named bundle of field values applied in one action.
type Preset struct {
	Key         string             `json:"key" yaml:"key"`
	Label       string             `json:"label" yaml:"label"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Values      ValueSet           `json:"values,omitempty" yaml:"values,omitempty"`
	Styles      BreakpointStyleMap `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// Snapshot is one immutable entry of the edit history.
type Snapshot struct {
	ID        uuid.UUID          `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Values    ValueSet           `json:"values"`
	Styles    BreakpointStyleMap `json:"styles"`
}

// NewSnapshot deep-copies values and styles into a fresh snapshot.
func NewSnapshot(values ValueSet, styles BreakpointStyleMap) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Values:    values.Clone(),
		Styles:    styles.Clone(),
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
