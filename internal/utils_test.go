package internal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "schema qualified", input: "pagekit.component_designs", expected: pgx.Identifier{"pagekit", "component_designs"}.Sanitize()},
		{name: "trim quotes and spaces", input: `  "a" . "b" .. "c"  `, expected: pgx.Identifier{"a", "b", "c"}.Sanitize()},
		{name: "mixed quoted and plain", input: `foo."Bar baz"`, expected: pgx.Identifier{"foo", "Bar baz"}.Sanitize()},
		{name: "all empty parts fallback", input: "...", expected: pgx.Identifier{"..."}.Sanitize()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeIdentifier(tt.input))
		})
	}
}

func TestToUUID(t *testing.T) {
	u := uuid.New()
	uPtr := uuid.MustParse(u.String())
	validStr := u.String()
	validStrPtr := &validStr
	raw16 := u[:]
	strBytes := []byte(validStr)
	invalidStr := "not-a-uuid"

	tests := []struct {
		name   string
		input  any
		expect uuid.UUID
		ok     bool
	}{
		{name: "uuid value", input: u, expect: u, ok: true},
		{name: "uuid pointer", input: &uPtr, expect: uPtr, ok: true},
		{name: "uuid pointer nil", input: (*uuid.UUID)(nil), expect: uuid.Nil, ok: false},
		{name: "string valid", input: validStr, expect: u, ok: true},
		{name: "string pointer valid", input: validStrPtr, expect: u, ok: true},
		{name: "string invalid", input: invalidStr, expect: uuid.Nil, ok: false},
		{name: "string pointer nil", input: (*string)(nil), expect: uuid.Nil, ok: false},
		{name: "bytes raw16", input: raw16, expect: u, ok: true},
		{name: "byte array", input: [16]byte(u), expect: u, ok: true},
		{name: "bytes string form", input: strBytes, expect: u, ok: true},
		{name: "bytes invalid", input: []byte("bad-bytes"), expect: uuid.Nil, ok: false},
		{name: "unsupported type", input: 123, expect: uuid.Nil, ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toUUID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expect, got)
		})
	}
}
