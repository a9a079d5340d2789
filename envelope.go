package pagekit

import (
	"bytes"
	"encoding/json"
	"time"
)

// EnvelopeVersion is written into every exported envelope.
const EnvelopeVersion = "1.0"

// Envelope is the portable JSON form of a value set or style map.
type Envelope struct {
	Version   string             `json:"version"`
	Timestamp time.Time          `json:"timestamp"`
	Values    ValueSet           `json:"values"`
	Styles    BreakpointStyleMap `json:"styles"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
}

// ExportToJSON serializes values with metadata into an envelope.
func ExportToJSON(values ValueSet, meta map[string]any) ([]byte, error) {
	if values == nil {
		values = ValueSet{}
	}
	return json.Marshal(Envelope{
		Version:   EnvelopeVersion,
		Timestamp: time.Now().UTC(),
		Values:    values,
		Metadata:  meta,
	})
}

// ExportStylesToJSON serializes a breakpoint style map into an envelope.
func ExportStylesToJSON(styles BreakpointStyleMap, meta map[string]any) ([]byte, error) {
	if styles == nil {
		styles = BreakpointStyleMap{}
	}
	return json.Marshal(Envelope{
		Version:   EnvelopeVersion,
		Timestamp: time.Now().UTC(),
		Styles:    styles,
		Metadata:  meta,
	})
}

// rawEnvelope accepts the payload under any of the names older exports used.
type rawEnvelope struct {
	Version    string                     `json:"version"`
	Values     map[string]json.RawMessage `json:"values"`
	Properties map[string]json.RawMessage `json:"properties"`
	Styles     map[string]json.RawMessage `json:"styles"`
	Metadata   map[string]any             `json:"metadata"`
}

func decodeEnvelope(data []byte) (*rawEnvelope, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, NewInvalidEnvelopeError("import data is empty")
	}
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewInvalidJSONError(err)
	}
	return &raw, nil
}

// ImportFromJSON decodes an envelope and returns the values for the declared
// fields. The payload is read from "values", then "properties", then "styles";
// an envelope with none of them is rejected. Keys the schema does not declare
// are ignored.
func ImportFromJSON(data []byte, fields []FieldDefinition) (ValueSet, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	payload := raw.Values
	if payload == nil {
		payload = raw.Properties
	}
	if payload == nil {
		payload = raw.Styles
	}
	if payload == nil {
		return nil, NewInvalidEnvelopeError("import data must contain a values, properties or styles object")
	}

	out := ValueSet{}
	for _, f := range fields {
		msg, ok := payload[f.Key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, NewInvalidJSONError(err).WithField(f.Key)
		}
		out[f.Key] = v
	}
	return out, nil
}

// ImportStylesFromJSON decodes a style envelope. Unknown breakpoints are
// ignored; when allowedKeys is non-empty, only those style keys are copied.
func ImportStylesFromJSON(data []byte, allowedKeys ...string) (BreakpointStyleMap, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if raw.Styles == nil {
		return nil, NewInvalidEnvelopeError("import data must contain a styles object")
	}

	allowed := make(map[string]bool, len(allowedKeys))
	for _, k := range allowedKeys {
		allowed[k] = true
	}

	out := BreakpointStyleMap{}
	for name, msg := range raw.Styles {
		bp := Breakpoint(name)
		if !bp.Valid() {
			continue
		}
		var styles map[string]any
		if err := json.Unmarshal(msg, &styles); err != nil {
			return nil, NewInvalidEnvelopeError("styles." + name + " must be an object").WithCause(err)
		}
		filtered := StyleMap{}
		for k, v := range styles {
			if len(allowed) > 0 && !allowed[k] {
				continue
			}
			filtered[k] = v
		}
		if len(filtered) > 0 {
			out[bp] = filtered
		}
	}
	return out, nil
}

// EnvelopeMetadata returns the metadata object of an envelope without
// importing its payload.
func EnvelopeMetadata(data []byte) (map[string]any, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return raw.Metadata, nil
}

// ExportDesignToJSON serializes both the value set and the style map of one
// component instance.
func ExportDesignToJSON(values ValueSet, styles BreakpointStyleMap, meta map[string]any) ([]byte, error) {
	if values == nil {
		values = ValueSet{}
	}
	if styles == nil {
		styles = BreakpointStyleMap{}
	}
	return json.Marshal(Envelope{
		Version:   EnvelopeVersion,
		Timestamp: time.Now().UTC(),
		Values:    values,
		Styles:    styles,
		Metadata:  meta,
	})
}

// ImportDesignFromJSON decodes a design envelope. Values follow ImportFromJSON;
// styles are read only when the envelope carries a values or properties
// payload next to them, otherwise the styles object is the value payload.
// The returned style map is nil when the envelope has no style payload and
// non-nil (possibly empty) when it does.
func ImportDesignFromJSON(data []byte, fields []FieldDefinition) (ValueSet, BreakpointStyleMap, error) {
	values, err := ImportFromJSON(data, fields)
	if err != nil {
		return nil, nil, err
	}
	raw, err := decodeEnvelope(data)
	if err != nil {
		return nil, nil, err
	}
	if raw.Styles == nil || (raw.Values == nil && raw.Properties == nil) {
		return values, nil, nil
	}
	styles, err := ImportStylesFromJSON(data)
	if err != nil {
		return nil, nil, err
	}
	return values, styles, nil
}
