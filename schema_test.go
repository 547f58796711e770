package dossier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findSchemaObject returns the first map in schemaMap that has "properties"
// (root or inside $defs). Used by tests to assert on additionalProperties,
// descriptions, etc.
func findSchemaObject(schemaMap map[string]any) map[string]any {
	if schemaMap == nil {
		return nil
	}
	if schemaMap["properties"] != nil {
		return schemaMap
	}
	if defs, ok := schemaMap["$defs"].(map[string]any); ok {
		for _, v := range defs {
			if o, ok := v.(map[string]any); ok && o["properties"] != nil {
				return o
			}
		}
	}
	return nil
}

func TestGenerateSchema_Simple(t *testing.T) {
	type Simple struct {
		Keyword string `json:"keyword"`
		Limit   int    `json:"limit,omitempty"`
	}
	m, resolved, err := generateSchema[Simple](false)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.NotNil(t, m)
	obj := findSchemaObject(m)
	require.NotNil(t, obj, "expected root or $defs with properties")
	props, ok := obj["properties"].(map[string]any)
	require.True(t, ok, "expected properties map")
	assert.Contains(t, props, "keyword")
	assert.Contains(t, props, "limit")
}

func TestGenerateSchema_DescriptionTags(t *testing.T) {
	type Tagged struct {
		Name string `json:"name" description:"The person's name"`
		Mode string `json:"mode,omitempty" enum:"strict, loose"`
	}
	m, _, err := generateSchema[Tagged](false)
	require.NoError(t, err)
	obj := findSchemaObject(m)
	require.NotNil(t, obj)
	props := obj["properties"].(map[string]any)

	name, ok := props["name"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "The person's name", name["description"])

	mode, ok := props["mode"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"strict", "loose"}, mode["enum"])
}

func TestGenerateSchema_StrictMode(t *testing.T) {
	type Nested struct {
		A string `json:"a"`
	}
	type Root struct {
		X string `json:"x"`
		N Nested `json:"n"`
	}
	m, _, err := generateSchema[Root](true)
	require.NoError(t, err)
	require.NotNil(t, m)
	var check func(map[string]any)
	check = func(m map[string]any) {
		if m == nil {
			return
		}
		if _, hasProps := m["properties"]; hasProps {
			v, ok := m["additionalProperties"]
			assert.True(t, ok, "expected additionalProperties in object schema")
			assert.Equal(t, false, v)
		}
		for _, val := range m {
			switch v := val.(type) {
			case map[string]any:
				check(v)
			case []any:
				for _, item := range v {
					if m2, ok := item.(map[string]any); ok {
						check(m2)
					}
				}
			}
		}
	}
	check(m)
}

func TestApplyStrictMode_RequiredSorted(t *testing.T) {
	m := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"b": map[string]any{"type": "string"},
			"a": map[string]any{"type": "string"},
		},
	}
	applyStrictMode(m)
	assert.Equal(t, false, m["additionalProperties"])
	assert.Equal(t, []any{"a", "b"}, m["required"])
}

func TestStripSchemaIDs(t *testing.T) {
	m := map[string]any{
		"$id":        "root",
		"properties": map[string]any{"x": map[string]any{"id": "inner", "type": "string"}},
	}
	stripSchemaIDs(m)
	_, ok := m["$id"]
	assert.False(t, ok)
	inner := m["properties"].(map[string]any)["x"].(map[string]any)
	_, ok = inner["id"]
	assert.False(t, ok)
}
