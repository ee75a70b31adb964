// internal/analysis/schema.go
package analysis

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "codag/internal/common/errors"
)

// graphSchema pins the shape the parsed document must have before it is
// decoded into the typed graph.
const graphSchema = `{
	"type": "object",
	"required": ["nodes"],
	"properties": {
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string"},
					"type": {"type": "string"},
					"label": {"type": "string"},
					"source": {
						"type": "object",
						"properties": {
							"file": {"type": "string"},
							"line": {"type": "integer"}
						}
					}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["from", "to"],
				"properties": {
					"from": {"type": "string"},
					"to": {"type": "string"},
					"label": {"type": "string"},
					"sourceLocation": {
						"type": "object",
						"properties": {
							"file": {"type": "string"},
							"line": {"type": "integer"}
						}
					}
				}
			}
		}
	}
}`

var graphSchemaLoader = gojsonschema.NewStringLoader(graphSchema)

// ValidateGraphDocument checks a parsed document against the workflow
// graph schema.
func ValidateGraphDocument(doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(graphSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return apperrors.NewGraphInvalidError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return apperrors.NewGraphInvalidError(strings.Join(details, "; "))
}
