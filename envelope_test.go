package pagekit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardFields() []FieldDefinition {
	return []FieldDefinition{
		{Key: "title", Type: FieldTypeText},
		{Key: "count", Type: FieldTypeNumber},
		{Key: "tags", Type: FieldTypeMultiSelect, Options: []FieldOption{{Label: "A", Value: "a"}}},
	}
}

func TestExportToJSON(t *testing.T) {
	data, err := ExportToJSON(ValueSet{"title": "Hi", "count": 2}, map[string]any{"author": "ana"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.WithinDuration(t, time.Now(), env.Timestamp, time.Minute)
	assert.Equal(t, ValueSet{"title": "Hi", "count": float64(2)}, env.Values)
	assert.Equal(t, map[string]any{"author": "ana"}, env.Metadata)

	data, err = ExportToJSON(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"values":{}`)
	assert.NotContains(t, string(data), "metadata")
}

func TestImportFromJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want ValueSet
	}{
		{"values payload", `{"version":"1.0","values":{"title":"Hi","count":3}}`, ValueSet{"title": "Hi", "count": float64(3)}},
		{"properties payload", `{"properties":{"tags":["a"]}}`, ValueSet{"tags": []any{"a"}}},
		{"styles payload", `{"styles":{"title":"From styles"}}`, ValueSet{"title": "From styles"}},
		{"values win over properties", `{"values":{"title":"v"},"properties":{"title":"p"}}`, ValueSet{"title": "v"}},
		{"unknown keys dropped", `{"values":{"title":"Hi","ghost":1}}`, ValueSet{"title": "Hi"}},
		{"explicit null kept", `{"values":{"title":null}}`, ValueSet{"title": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImportFromJSON([]byte(tt.data), cardFields())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportFromJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code string
	}{
		{"empty", "   ", ErrCodeInvalidEnvelope},
		{"malformed", `{"values":`, ErrCodeInvalidJSON},
		{"no payload", `{"version":"1.0","metadata":{}}`, ErrCodeInvalidEnvelope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportFromJSON([]byte(tt.data), cardFields())
			var pe *PagekitError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.code, pe.Code)
			assert.Equal(t, ErrorTypeValidation, pe.Type)
		})
	}
}

func TestStylesRoundTrip(t *testing.T) {
	styles := BreakpointStyleMap{
		BreakpointDesktop: {"width": "50%", "color": "black"},
		BreakpointMobile:  {"width": "100%"},
	}
	data, err := ExportStylesToJSON(styles, nil)
	require.NoError(t, err)

	got, err := ImportStylesFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, styles, got)

	filtered, err := ImportStylesFromJSON(data, "width")
	require.NoError(t, err)
	assert.Equal(t, BreakpointStyleMap{
		BreakpointDesktop: {"width": "50%"},
		BreakpointMobile:  {"width": "100%"},
	}, filtered)
}

func TestImportStylesFromJSONEdgeCases(t *testing.T) {
	got, err := ImportStylesFromJSON([]byte(`{"styles":{"watch":{"width":"1px"},"tablet":{"gap":"2px"}}}`))
	require.NoError(t, err)
	assert.Equal(t, BreakpointStyleMap{BreakpointTablet: {"gap": "2px"}}, got)

	_, err = ImportStylesFromJSON([]byte(`{"values":{}}`))
	assert.Error(t, err)

	_, err = ImportStylesFromJSON([]byte(`{"styles":{"mobile":"wide"}}`))
	var pe *PagekitError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeInvalidEnvelope, pe.Code)
}

func TestDesignRoundTrip(t *testing.T) {
	values := ValueSet{"title": "Hi", "tags": []any{"a"}}
	styles := BreakpointStyleMap{BreakpointTablet: {"padding": "4px"}}

	data, err := ExportDesignToJSON(values, styles, map[string]any{"componentId": "card-1"})
	require.NoError(t, err)

	gotValues, gotStyles, err := ImportDesignFromJSON(data, cardFields())
	require.NoError(t, err)
	assert.Equal(t, values, gotValues)
	assert.Equal(t, styles, gotStyles)

	meta, err := EnvelopeMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, "card-1", meta["componentId"])
}

func TestImportDesignStylesOnlyEnvelope(t *testing.T) {
	values, styles, err := ImportDesignFromJSON([]byte(`{"styles":{"title":"legacy"}}`), cardFields())
	require.NoError(t, err)
	assert.Equal(t, ValueSet{"title": "legacy"}, values)
	assert.Nil(t, styles)
}

func TestImportDesignEmptyStylesPayload(t *testing.T) {
	_, styles, err := ImportDesignFromJSON([]byte(`{"values":{"title":"Hi"},"styles":{}}`), cardFields())
	require.NoError(t, err)
	assert.NotNil(t, styles, "an explicit empty styles object must be distinguishable from an absent one")
	assert.Empty(t, styles)

	_, styles, err = ImportDesignFromJSON([]byte(`{"values":{"title":"Hi"}}`), cardFields())
	require.NoError(t, err)
	assert.Nil(t, styles)
}

func TestApplyPreset(t *testing.T) {
	preset := Preset{
		Key:    "loud",
		Values: ValueSet{"title": "LOUD", "tags": []any{"a"}},
		Styles: BreakpointStyleMap{BreakpointMobile: {"fontSize": "20px"}},
	}
	target := ValueSet{"title": "quiet", "count": 1}

	got := ApplyPreset(preset, target)
	assert.Equal(t, ValueSet{"title": "LOUD", "count": 1, "tags": []any{"a"}}, got)
	assert.Equal(t, ValueSet{"title": "quiet", "count": 1}, target)

	got["tags"].([]any)[0] = "changed"
	assert.Equal(t, []any{"a"}, preset.Values["tags"])

	store := NewBreakpointStore(BreakpointStyleMap{BreakpointMobile: {"color": "red"}})
	require.NoError(t, ApplyPresetStyles(preset, store))
	assert.Equal(t, StyleMap{"color": "red", "fontSize": "20px"}, store.At(BreakpointMobile))
}
