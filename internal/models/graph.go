// internal/models/graph.go
package models

// SourceRef points at the location in the analyzed code a graph element
// was extracted from.
type SourceRef struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

// Node is a single operation in the extracted workflow.
type Node struct {
	ID     string     `json:"id"`
	Type   string     `json:"type,omitempty"`
	Label  string     `json:"label,omitempty"`
	Source *SourceRef `json:"source,omitempty"`
}

// Edge is a data or control flow between two nodes.
type Edge struct {
	From           string     `json:"from"`
	To             string     `json:"to"`
	Label          string     `json:"label,omitempty"`
	SourceLocation *SourceRef `json:"sourceLocation,omitempty"`
}

// WorkflowGraph is the final analysis artifact returned to the caller.
// It is not mutated after the pipeline returns it.
type WorkflowGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
