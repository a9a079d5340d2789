package pagekit

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// numericStringSource is the decimal notation a number field accepts in string
// form. The exported JSON Schema uses the same expression.
const numericStringSource = `^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?\s*$`

var numericStringPattern = regexp.MustCompile(numericStringSource)

// Validator runs type checks and declarative rules against field values.
// A Validator is safe for concurrent use; sessions may share one.
type Validator struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
	patterns   sync.Map // pattern source -> *regexp.Regexp or error
}

// NewValidator creates a validator with no named predicates.
func NewValidator() *Validator {
	return &Validator{predicates: make(map[string]Predicate)}
}

// RegisterPredicate makes a custom check available to rules declaring
// {"type": "custom", "params": {"name": name}}.
func (v *Validator) RegisterPredicate(name string, p Predicate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.predicates[name] = p
}

func (v *Validator) predicate(name string) Predicate {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.predicates[name]
}

// Validate checks one value against its definition.
//
// An empty value (absent, nil or "") short-circuits: it yields a single
// required error when the field requires a value (see RequiresValue), the
// messages of any advisory required rules, and a clean result otherwise.
// A non-empty value goes through the type check and then every rule in order;
// all failures are collected.
func (v *Validator) Validate(value any, def FieldDefinition) ValidationResult {
	res := ValidationResult{Errors: []string{}}

	if IsEmpty(value) {
		if def.RequiresValue() {
			res.Errors = append(res.Errors, requiredMessage(def))
		} else {
			for _, rule := range def.ValidationRules {
				if rule.Type == RuleRequired {
					v.applyRule(&res, value, def, rule)
				}
			}
		}
		res.IsValid = len(res.Errors) == 0
		return res
	}

	if msg := typeCheck(value, def); msg != "" {
		res.Errors = append(res.Errors, msg)
	}

	if def.Type == FieldTypeSelect && len(def.Options) > 0 && !def.HasOption(value) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s is not one of the available options", def.DisplayLabel()))
	}
	if def.Type == FieldTypeMultiSelect && len(def.Options) > 0 {
		if items, ok := value.([]any); ok {
			for _, item := range items {
				if !def.HasOption(item) {
					res.Warnings = append(res.Warnings, fmt.Sprintf("%s contains %s, which is not an available option", def.DisplayLabel(), stringify(item)))
				}
			}
		}
	}

	for _, rule := range def.ValidationRules {
		v.applyRule(&res, value, def, rule)
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// ValidateAll validates every definition independently.
func (v *Validator) ValidateAll(values ValueSet, defs []FieldDefinition) map[FieldKey]ValidationResult {
	out := make(map[FieldKey]ValidationResult, len(defs))
	for _, def := range defs {
		out[def.Key] = v.Validate(values[def.Key], def)
	}
	return out
}

// ValidateVisible validates only the fields visible under values, applying
// requiredWhen conditions from graph.
func (v *Validator) ValidateVisible(values ValueSet, defs []FieldDefinition, graph *DependencyGraph) map[FieldKey]ValidationResult {
	out := make(map[FieldKey]ValidationResult, len(defs))
	for _, def := range defs {
		if !graph.IsVisible(def.Key, values) {
			continue
		}
		effective := def
		effective.Required = graph.IsRequired(def.Key, values)
		out[def.Key] = v.Validate(values[def.Key], effective)
	}
	return out
}

// AllValid reports whether no result carries an error.
func AllValid(results map[FieldKey]ValidationResult) bool {
	for _, r := range results {
		if !r.IsValid {
			return false
		}
	}
	return true
}

func requiredMessage(def FieldDefinition) string {
	for _, rule := range def.ValidationRules {
		if rule.Type == RuleRequired && rule.Message != "" {
			return rule.Message
		}
	}
	return fmt.Sprintf("%s is required", def.DisplayLabel())
}

func typeCheck(value any, def FieldDefinition) string {
	label := def.DisplayLabel()
	switch def.Type.ValueKind() {
	case ValueKindString:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("%s must be a string", label)
		}
	case ValueKindNumber:
		if !isNumeric(value) {
			return fmt.Sprintf("%s must be a number", label)
		}
	case ValueKindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("%s must be a boolean", label)
		}
	case ValueKindArray:
		switch value.(type) {
		case []any, []string:
		default:
			return fmt.Sprintf("%s must be a list", label)
		}
	case ValueKindObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Sprintf("%s must be an object", label)
		}
	case ValueKindAny:
	}
	return ""
}

// isNumeric accepts Go numbers and strings written in plain decimal notation.
func isNumeric(value any) bool {
	if n, ok := numericValue(value); ok {
		return !math.IsNaN(n)
	}
	if s, ok := value.(string); ok {
		return numericStringPattern.MatchString(s)
	}
	return false
}

func (v *Validator) applyRule(res *ValidationResult, value any, def FieldDefinition, rule ValidationRule) {
	label := def.DisplayLabel()
	fail := func(defaultMessage string) {
		msg := rule.Message
		if msg == "" {
			msg = defaultMessage
		}
		switch rule.Severity {
		case SeverityWarning:
			res.Warnings = append(res.Warnings, msg)
		case SeverityInfo:
			res.Infos = append(res.Infos, msg)
		default:
			res.Errors = append(res.Errors, msg)
		}
	}

	switch rule.Type {
	case RuleRequired:
		if IsEmpty(value) {
			fail(fmt.Sprintf("%s is required", label))
		}
	case RuleMinLength:
		min, ok := numberParam(rule.Params, "min", "length", "value")
		if ok && float64(utf8.RuneCountInString(stringify(value))) < min {
			fail(fmt.Sprintf("%s must be at least %s characters", label, formatNumber(min)))
		}
	case RuleMaxLength:
		max, ok := numberParam(rule.Params, "max", "length", "value")
		if ok && float64(utf8.RuneCountInString(stringify(value))) > max {
			fail(fmt.Sprintf("%s must be at most %s characters", label, formatNumber(max)))
		}
	case RuleMinValue:
		min, ok := numberParam(rule.Params, "min", "value")
		if !ok {
			return
		}
		if n := ToNumber(value); math.IsNaN(n) || n < min {
			fail(fmt.Sprintf("%s must be at least %s", label, formatNumber(min)))
		}
	case RuleMaxValue:
		max, ok := numberParam(rule.Params, "max", "value")
		if !ok {
			return
		}
		if n := ToNumber(value); math.IsNaN(n) || n > max {
			fail(fmt.Sprintf("%s must be at most %s", label, formatNumber(max)))
		}
	case RulePattern:
		source, _ := stringParam(rule.Params, "pattern", "value")
		if source == "" {
			return
		}
		if flags, _ := stringParam(rule.Params, "flags"); strings.Contains(flags, "i") {
			source = "(?i)" + source
		}
		re, err := v.compile(source)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s has an invalid pattern: %v", label, err))
			return
		}
		if !re.MatchString(stringify(value)) {
			fail(fmt.Sprintf("%s has an invalid format", label))
		}
	case RuleEmail:
		if !emailPattern.MatchString(stringify(value)) {
			fail(fmt.Sprintf("%s must be a valid email address", label))
		}
	case RuleURL:
		if !isURL(stringify(value)) {
			fail(fmt.Sprintf("%s must be a valid URL", label))
		}
	case RuleCustom:
		pred := rule.Predicate
		if pred == nil {
			if name, ok := stringParam(rule.Params, "name"); ok {
				pred = v.predicate(name)
			}
		}
		if pred != nil && !pred(value, def) {
			fail(fmt.Sprintf("%s is invalid", label))
		}
	default:
		// Unknown rule types pass.
	}
}

func (v *Validator) compile(source string) (*regexp.Regexp, error) {
	if cached, ok := v.patterns.Load(source); ok {
		if re, ok := cached.(*regexp.Regexp); ok {
			return re, nil
		}
		return nil, cached.(error)
	}
	re, err := regexp.Compile(source)
	if err != nil {
		v.patterns.Store(source, err)
		return nil, err
	}
	v.patterns.Store(source, re)
	return re, nil
}

// isURL accepts absolute URLs: a scheme plus a host or an opaque part.
func isURL(s string) bool {
	if strings.TrimSpace(s) != s || s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

func numberParam(params map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		raw, ok := params[name]
		if !ok {
			continue
		}
		n := ToNumber(raw)
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func stringParam(params map[string]any, names ...string) (string, bool) {
	for _, name := range names {
		if s, ok := params[name].(string); ok {
			return s, true
		}
	}
	return "", false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
