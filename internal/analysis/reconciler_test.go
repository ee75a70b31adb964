// internal/analysis/reconciler_test.go
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codag/internal/models"
)

var knownPaths = []string{"src/app/main.py", "src/utils/io.py"}

func TestFixPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "exact match",
			path:     "src/app/main.py",
			expected: "src/app/main.py",
		},
		{
			name:     "sandbox prefix mapped by filename",
			path:     "/tmp/abc/main.py",
			expected: "src/app/main.py",
		},
		{
			name:     "filename suffix match",
			path:     "io.py",
			expected: "src/utils/io.py",
		},
		{
			name:     "unknown filename unchanged",
			path:     "/tmp/abc/missing.py",
			expected: "/tmp/abc/missing.py",
		},
		{
			name:     "empty path unchanged",
			path:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FixPath(tt.path, knownPaths))
		})
	}
}

func TestFixPath_NoKnownPaths(t *testing.T) {
	assert.Equal(t, "/tmp/abc/main.py", FixPath("/tmp/abc/main.py", nil))
}

func TestReconcilePaths(t *testing.T) {
	graph := &models.WorkflowGraph{
		Nodes: []models.Node{
			{ID: "a", Source: &models.SourceRef{File: "/tmp/abc/main.py", Line: 10}},
			{ID: "b", Source: &models.SourceRef{File: "src/utils/io.py"}},
			{ID: "c"}, // no source at all
		},
		Edges: []models.Edge{
			{From: "a", To: "b", SourceLocation: &models.SourceRef{File: "io.py"}},
			{From: "b", To: "c"},
		},
	}

	out := ReconcilePaths(graph, knownPaths)
	require.Same(t, graph, out)

	assert.Equal(t, "src/app/main.py", out.Nodes[0].Source.File)
	assert.Equal(t, 10, out.Nodes[0].Source.Line)
	assert.Equal(t, "src/utils/io.py", out.Nodes[1].Source.File)
	assert.Nil(t, out.Nodes[2].Source)
	assert.Equal(t, "src/utils/io.py", out.Edges[0].SourceLocation.File)
	assert.Nil(t, out.Edges[1].SourceLocation)
}
