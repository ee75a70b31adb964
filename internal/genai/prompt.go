// internal/genai/prompt.go
package genai

import (
	"fmt"
	"strings"

	"codag/internal/models"
)

// systemInstruction is the fixed preamble sent with every request.
const systemInstruction = `You are a static analysis assistant that extracts LLM-orchestration workflows from source code.

Identify operations (model calls, prompt construction, tool invocations, parsing steps, control decisions) and the data/control flow between them.

Respond with a single JSON object and nothing else:
{
  "nodes": [{"id": "...", "type": "...", "label": "...", "source": {"file": "...", "line": 0}}],
  "edges": [{"from": "...", "to": "...", "label": "...", "sourceLocation": {"file": "...", "line": 0}}]
}

Use the file paths exactly as given in the input. Do not wrap the JSON in markdown fences.`

// BuildPrompt derives the full prompt payload from a generation request.
// Pure: same request yields the same prompt.
func BuildPrompt(req *models.GenerationRequest) string {
	return systemInstruction + "\n\n" + buildUserPrompt(req)
}

func buildUserPrompt(req *models.GenerationRequest) string {
	var parts []string

	if req.FrameworkHint != "" {
		parts = append(parts, fmt.Sprintf("Framework hint: %s", req.FrameworkHint))
	}

	if len(req.FileMetadata) > 0 {
		parts = append(parts, "Files:")
		for _, m := range req.FileMetadata {
			line := fmt.Sprintf("- %s", m.Path)
			if m.Language != "" {
				line += fmt.Sprintf(" (%s)", m.Language)
			}
			if m.Size > 0 {
				line += fmt.Sprintf(" [%d bytes]", m.Size)
			}
			parts = append(parts, line)
		}
	}

	parts = append(parts, "Code:")
	parts = append(parts, req.SourceText)

	return strings.Join(parts, "\n")
}
