// ABOUTME: Tests for JSON extraction from model output.
// ABOUTME: Covers fences, comments, trailing commas, and string safety.

package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	got := ExtractJSON(`{"a": 1}`)
	assert.JSONEq(t, `{"a": 1}`, got)
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	input := "Sure, here is the itinerary:\n```json\n{\"a\": 1}\n```\nEnjoy!"
	assert.JSONEq(t, `{"a": 1}`, ExtractJSON(input))
}

func TestExtractJSON_FenceWithoutLanguage(t *testing.T) {
	input := "```\n{\"a\": 1}\n```"
	assert.JSONEq(t, `{"a": 1}`, ExtractJSON(input))
}

func TestExtractJSON_TrailingCommas(t *testing.T) {
	got := ExtractJSON(`{"items": [1, 2, 3,], "b": 2,}`)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &v))
	assert.Len(t, v["items"], 3)
}

func TestExtractJSON_LineComments(t *testing.T) {
	input := `{
		"name": "Louvre", // the big one
		"count": 2
	}`
	got := ExtractJSON(input)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &v))
	assert.Equal(t, "Louvre", v["name"])
}

func TestExtractJSON_PreservesURLsInStrings(t *testing.T) {
	input := `{"url": "https://example.com/place"}`
	got := ExtractJSON(input)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &v))
	assert.Equal(t, "https://example.com/place", v["url"])
}

func TestExtractJSON_NoObject(t *testing.T) {
	assert.Empty(t, ExtractJSON("no json here"))
	assert.Empty(t, ExtractJSON(""))
}
