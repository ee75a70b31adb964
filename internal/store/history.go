// internal/store/history.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codag/internal/analysis"
)

// History persists one row per analysis in PostgreSQL.
type History struct {
	db *sql.DB
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

const insertAnalysisSQL = `
	INSERT INTO analysis_history (id, framework, node_count, edge_count, duration_ms, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Record implements analysis.Recorder.
func (h *History) Record(ctx context.Context, rec analysis.Record) error {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := h.db.ExecContext(ctx, insertAnalysisSQL,
		id,
		rec.Framework,
		rec.NodeCount,
		rec.EdgeCount,
		rec.Duration.Milliseconds(),
		rec.Status,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis record: %w", err)
	}
	return nil
}
