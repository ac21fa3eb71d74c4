package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrDefault(t *testing.T) {
	fallback := map[string]string{}

	parsed := ParseOrDefault(`{"Content-Type":"application/json"}`, fallback)
	require.Equal(t, "application/json", parsed["Content-Type"])

	assert.Equal(t, fallback, ParseOrDefault("", fallback))
	assert.Equal(t, fallback, ParseOrDefault("{not json", fallback))
	assert.Equal(t, fallback, ParseOrDefault(`["wrong","shape"]`, fallback))
}

func TestParseOrDefaultNested(t *testing.T) {
	raw := `{"user":{"id":7,"tags":["a","b"]},"ok":true}`
	parsed := ParseOrDefault(raw, map[string]any{})
	require.Contains(t, parsed, "user")
	nested, ok := parsed["user"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 7, nested["id"])
}

func TestIsValidMethod(t *testing.T) {
	for _, m := range ValidMethods {
		assert.True(t, IsValidMethod(m), m)
	}
	assert.False(t, IsValidMethod("get"), "methods are upper-cased before validation")
	assert.False(t, IsValidMethod("TRACE"))
	assert.False(t, IsValidMethod(""))
}

func TestRequestDefinitionHeaderMap(t *testing.T) {
	req := RequestDefinition{Headers: `{"Authorization":"Bearer x"}`}
	assert.Equal(t, "Bearer x", req.HeaderMap()["Authorization"])

	corrupt := RequestDefinition{Headers: "{{"}
	assert.Empty(t, corrupt.HeaderMap())
}
