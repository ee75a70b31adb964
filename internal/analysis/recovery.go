// internal/analysis/recovery.go
package analysis

import (
	"encoding/json"
	"strings"

	apperrors "codag/internal/common/errors"
	"codag/internal/common/metrics"
)

// ParseGraph parses the normalized model output as a JSON document. When
// parsing fails and the tail looks cut off (no closing brace), it repairs
// the text once and reparses; any other parse failure propagates unchanged.
func ParseGraph(normalized string) (map[string]interface{}, error) {
	text := strings.TrimSpace(normalized)

	var doc map[string]interface{}
	err := json.Unmarshal([]byte(text), &doc)
	if err == nil {
		return doc, nil
	}

	if strings.HasSuffix(text, "}") {
		// Complete tail: not the truncation class, surface the real error.
		return nil, err
	}

	repaired := repairTruncated(text)

	var repairedDoc map[string]interface{}
	if reparseErr := json.Unmarshal([]byte(repaired), &repairedDoc); reparseErr != nil {
		metrics.TruncationRepairs.WithLabelValues("failed").Inc()
		return nil, apperrors.NewResponseTruncatedError(err)
	}

	metrics.TruncationRepairs.WithLabelValues("recovered").Inc()
	return repairedDoc, nil
}

// repairTruncated closes the open structures of a text cut off mid-stream.
// A dangling element after the last comma is discarded, then the remaining
// net-open brackets and braces are closed, lists first.
//
// This is a heuristic over global character counts, not a structural
// repair: deep or irregular nesting can still yield an invalid (or
// syntactically valid but wrong) document.
func repairTruncated(text string) string {
	lastComma := strings.LastIndex(text, ",")
	if lastComma > strings.LastIndex(text, "}") && lastComma > strings.LastIndex(text, "]") {
		text = text[:lastComma]
	}

	openBraces := strings.Count(text, "{") - strings.Count(text, "}")
	openBrackets := strings.Count(text, "[") - strings.Count(text, "]")

	if openBrackets > 0 {
		text += strings.Repeat("]", openBrackets)
	}
	if openBraces > 0 {
		text += strings.Repeat("}", openBraces)
	}

	return text
}
