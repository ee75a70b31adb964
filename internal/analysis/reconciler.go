// internal/analysis/reconciler.go
package analysis

import (
	"strings"

	"codag/internal/models"
)

// FixPath maps a model-emitted file path back to one of the caller's known
// input paths. Exact match wins; otherwise the first known path ending in
// "/"+filename; otherwise the path is returned unchanged.
func FixPath(path string, knownPaths []string) string {
	if path == "" {
		return path
	}

	for _, known := range knownPaths {
		if known == path {
			return path
		}
	}

	filename := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		filename = path[i+1:]
	}

	for _, known := range knownPaths {
		if strings.HasSuffix(known, "/"+filename) {
			return known
		}
	}

	return path
}

// ReconcilePaths corrects every file reference in the graph against the
// caller's input paths. Never fails; unknown paths are left as-is.
func ReconcilePaths(graph *models.WorkflowGraph, knownPaths []string) *models.WorkflowGraph {
	for i := range graph.Nodes {
		if src := graph.Nodes[i].Source; src != nil && src.File != "" {
			src.File = FixPath(src.File, knownPaths)
		}
	}
	for i := range graph.Edges {
		if loc := graph.Edges[i].SourceLocation; loc != nil && loc.File != "" {
			loc.File = FixPath(loc.File, knownPaths)
		}
	}
	return graph
}
