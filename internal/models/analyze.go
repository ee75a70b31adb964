// internal/models/analyze.go
package models

// FileMetadata describes one file of the submitted code bundle.
type FileMetadata struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// AnalyzeRequest is the boundary DTO accepted by POST /analyze.
type AnalyzeRequest struct {
	Code          string         `json:"code"`
	FrameworkHint string         `json:"framework_hint,omitempty"`
	FilePaths     []string       `json:"file_paths,omitempty"`
	Metadata      []FileMetadata `json:"metadata,omitempty"`
}

// GenerationRequest is one logical request to the model service.
// Immutable once built.
type GenerationRequest struct {
	SourceText    string
	FrameworkHint string
	FileMetadata  []FileMetadata
}

// FinishSignal is the terminal status the model service reports for why
// output generation stopped.
type FinishSignal string

const (
	FinishComplete    FinishSignal = "COMPLETE"
	FinishTruncated   FinishSignal = "TRUNCATED_BY_LIMIT"
	FinishSafety      FinishSignal = "BLOCKED_BY_SAFETY"
	FinishUnspecified FinishSignal = "UNSPECIFIED"
	FinishOther       FinishSignal = "OTHER"
)

// RawResponse is the raw text produced by one successful model call.
// It lives only within a single pipeline invocation.
type RawResponse struct {
	Text         string
	FinishSignal FinishSignal
}
