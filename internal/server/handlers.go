// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "codag/internal/common/errors"
	"codag/internal/models"
)

// errorBody is the error envelope returned by every failing endpoint.
type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context(), s.logger)

	var req models.AnalyzeRequest
	body := http.MaxBytesReader(w, r.Body, MaxCodeSize+1<<20)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Detail: fmt.Sprintf("Codebase too large (max %d bytes)", MaxCodeSize),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}

	if len(req.Code) > MaxCodeSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Detail: fmt.Sprintf("Codebase too large (max %d bytes)", MaxCodeSize),
		})
		return
	}
	if len(req.FilePaths) > MaxFiles {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Detail: fmt.Sprintf("Too many files (max %d)", MaxFiles),
		})
		return
	}

	graph, err := s.analyzer.Analyze(r.Context(), &req)
	if err != nil {
		status := apperrors.StatusFor(err)
		detail := "Analysis failed"
		if stdErr, ok := apperrors.AsStandard(err); ok {
			detail = stdErr.Message
			log.WithError(err).Error("analysis failed", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"status":    status,
			})
		} else {
			log.WithError(err).Error("analysis failed", map[string]interface{}{
				"status": status,
			})
		}
		writeJSON(w, status, errorBody{Detail: detail})
		return
	}

	writeJSON(w, http.StatusOK, graph)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
