package pagekit

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSONSchema describes the component's value set as a JSON Schema document.
// Fields guarded by a conditional are never listed as required, because a
// hidden field may legitimately be absent.
func (s *ComponentSchema) JSONSchema() (*jsonschema.Schema, error) {
	root := &jsonschema.Schema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		Type:        "object",
		Title:       s.Label,
		Description: s.Description,
		Properties:  make(map[string]*jsonschema.Schema, len(s.Fields)),
	}
	if root.Title == "" {
		root.Title = s.Name
	}

	for _, f := range s.Fields {
		prop, err := fieldJSONSchema(f)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Key, err)
		}
		root.Properties[f.Key] = prop
		if f.RequiresValue() && f.Conditional == nil {
			root.Required = append(root.Required, f.Key)
		}
	}
	return root, nil
}

func fieldJSONSchema(f FieldDefinition) (*jsonschema.Schema, error) {
	prop := &jsonschema.Schema{
		Title:       f.DisplayLabel(),
		Description: f.Description,
	}

	switch f.Type.ValueKind() {
	case ValueKindString:
		prop.Type = "string"
	case ValueKindNumber:
		prop.Types = []string{"number", "string"}
		prop.Pattern = numericStringSource
	case ValueKindBoolean:
		prop.Type = "boolean"
	case ValueKindArray:
		prop.Type = "array"
	case ValueKindObject:
		prop.Type = "object"
	case ValueKindAny:
	}

	switch f.Type {
	case FieldTypeURL:
		prop.Format = "uri"
	case FieldTypeEmail:
		prop.Format = "email"
	}

	if len(f.Options) > 0 {
		enum := make([]any, len(f.Options))
		for i, opt := range f.Options {
			enum[i] = opt.Value
		}
		if f.Type == FieldTypeMultiSelect {
			prop.Items = &jsonschema.Schema{Enum: enum}
		} else {
			prop.Enum = enum
		}
	}

	if f.Default != nil {
		raw, err := json.Marshal(f.Default)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default: %w", err)
		}
		prop.Default = raw
	}

	for _, rule := range f.ValidationRules {
		if rule.Severity != "" && rule.Severity != SeverityError {
			continue
		}
		switch rule.Type {
		case RuleMinLength:
			if n, ok := numberParam(rule.Params, "min", "length", "value"); ok {
				v := int(math.Ceil(n))
				prop.MinLength = &v
			}
		case RuleMaxLength:
			if n, ok := numberParam(rule.Params, "max", "length", "value"); ok {
				v := int(math.Floor(n))
				prop.MaxLength = &v
			}
		case RuleMinValue:
			if n, ok := numberParam(rule.Params, "min", "value"); ok {
				prop.Minimum = &n
			}
		case RuleMaxValue:
			if n, ok := numberParam(rule.Params, "max", "value"); ok {
				prop.Maximum = &n
			}
		case RulePattern:
			if p, ok := stringParam(rule.Params, "pattern", "value"); ok {
				if _, err := regexp.Compile(p); err != nil {
					continue
				}
				if prop.Pattern == "" {
					prop.Pattern = p
				} else {
					prop.AllOf = append(prop.AllOf, &jsonschema.Schema{Pattern: p})
				}
			}
		case RuleEmail:
			prop.Format = "email"
		case RuleURL:
			prop.Format = "uri"
		}
	}
	return prop, nil
}

// ValidateDocument checks values against the component's JSON Schema. It is a
// structural check for stored or imported documents; interactive editing uses
// Validator, which produces per-field messages.
func (s *ComponentSchema) ValidateDocument(values ValueSet) error {
	schema, err := s.JSONSchema()
	if err != nil {
		return err
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("failed to resolve JSON schema: %w", err)
	}

	// Round-trip through JSON so the validator sees plain decoded types.
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal values: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("failed to unmarshal values: %w", err)
	}

	// Number fields accept numeric strings; bounds apply to the parsed value.
	if doc, ok := instance.(map[string]any); ok {
		for _, f := range s.Fields {
			if f.Type.ValueKind() != ValueKindNumber {
				continue
			}
			if str, ok := doc[f.Key].(string); ok && numericStringPattern.MatchString(str) {
				if n, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
					doc[f.Key] = n
				}
			}
		}
	}

	if err := resolved.Validate(instance); err != nil {
		return NewPagekitError(ErrorTypeValidation, ErrCodeValidationFailed, "document does not match component schema").
			WithComponent(s.Name).
			WithCause(err)
	}
	return nil
}
