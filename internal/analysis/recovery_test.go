// internal/analysis/recovery_test.go
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "codag/internal/common/errors"
)

// ==========================
// Parse & Repair Tests
// ==========================

func TestParseGraph_ValidDocument(t *testing.T) {
	doc, err := ParseGraph(`{"nodes": [{"id": "a"}], "edges": []}`)

	require.NoError(t, err)
	nodes := doc["nodes"].([]interface{})
	assert.Len(t, nodes, 1)
}

func TestParseGraph_TruncatedMidElement(t *testing.T) {
	// Cut off inside the second node: the dangling element is dropped and
	// the list and object are closed.
	doc, err := ParseGraph(`{"nodes": [{"id": "a"}, {"id": "b"`)

	require.NoError(t, err)
	nodes := doc["nodes"].([]interface{})
	require.Len(t, nodes, 1)

	node := nodes[0].(map[string]interface{})
	assert.Equal(t, "a", node["id"])
}

func TestParseGraph_TruncatedAfterElement(t *testing.T) {
	doc, err := ParseGraph(`{"nodes": [{"id": "a"}`)

	require.NoError(t, err)
	nodes := doc["nodes"].([]interface{})
	assert.Len(t, nodes, 1)
}

func TestParseGraph_UnrepairableTruncation(t *testing.T) {
	// The cut lands inside a string value, so closing brackets cannot
	// produce valid JSON.
	_, err := ParseGraph(`{"nodes": [{"id": "a"`)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResponseTruncated))

	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Contains(t, stdErr.Message, "fewer files")
	assert.NotEmpty(t, stdErr.Details)
}

func TestParseGraph_MalformedWithClosingBrace(t *testing.T) {
	// A complete-looking document that fails to parse is not the
	// truncation class; the raw parse error surfaces.
	_, err := ParseGraph(`{"nodes": }`)

	require.Error(t, err)
	_, ok := apperrors.AsStandard(err)
	assert.False(t, ok)
}

func TestParseGraph_NotAnObject(t *testing.T) {
	_, err := ParseGraph(`[1, 2, 3]`)
	assert.Error(t, err)
}

// ==========================
// Repair Heuristic Tests
// ==========================

func TestRepairTruncated(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "dangling element after comma dropped",
			text:     `{"nodes": [{"id": "a"}, {"id": "b"`,
			expected: `{"nodes": [{"id": "a"}]}`,
		},
		{
			name:     "open structures closed lists first",
			text:     `{"nodes": [{"id": "a"}`,
			expected: `{"nodes": [{"id": "a"}]}`,
		},
		{
			name:     "comma inside a complete list kept",
			text:     `{"nodes": [{"id": "a"}, {"id": "b"}]`,
			expected: `{"nodes": [{"id": "a"}, {"id": "b"}]}`,
		},
		{
			name:     "balanced text unchanged",
			text:     `{"nodes": []}`,
			expected: `{"nodes": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repairTruncated(tt.text))
		})
	}
}
