// internal/analysis/pipeline.go
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	apperrors "codag/internal/common/errors"
	"codag/internal/common/logger"
	"codag/internal/common/metrics"
	"codag/internal/genai"
	"codag/internal/models"
)

// Generator issues one logical generation request to the model service.
type Generator interface {
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.RawResponse, error)
}

// ResultCache stores finished graphs keyed by request digest.
type ResultCache interface {
	GetGraph(ctx context.Context, key string) (*models.WorkflowGraph, error)
	PutGraph(ctx context.Context, key string, graph *models.WorkflowGraph) error
}

// Record is the per-analysis summary written to history.
type Record struct {
	ID        string
	Framework string
	NodeCount int
	EdgeCount int
	Duration  time.Duration
	Status    string
}

// Recorder persists analysis records. Failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// UsageRecorder feeds the otel meters alongside the promauto metrics.
type UsageRecorder interface {
	RecordAnalysis(ctx context.Context, status string)
	RecordAnalysisDuration(ctx context.Context, duration time.Duration, status string)
}

// Pipeline runs generate → normalize → parse → reconcile for one request.
// Stateless between invocations; safe for concurrent use.
type Pipeline struct {
	gen     Generator
	cache   ResultCache   // optional
	history Recorder      // optional
	obs     UsageRecorder // optional
	logger  logger.Logger
}

func NewPipeline(gen Generator, cache ResultCache, history Recorder, log logger.Logger) *Pipeline {
	return &Pipeline{
		gen:     gen,
		cache:   cache,
		history: history,
		logger: log.With(map[string]interface{}{
			"component": "pipeline",
		}),
	}
}

// WithObservability attaches an otel recorder to the pipeline.
func (p *Pipeline) WithObservability(obs UsageRecorder) *Pipeline {
	p.obs = obs
	return p
}

// Analyze produces a workflow graph for the submitted code. Every file
// reference in the returned graph is reconciled against req.FilePaths.
func (p *Pipeline) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.WorkflowGraph, error) {
	start := time.Now()

	genReq := &models.GenerationRequest{
		SourceText:    req.Code,
		FrameworkHint: req.FrameworkHint,
		FileMetadata:  req.Metadata,
	}

	key := requestDigest(genReq)
	if p.cache != nil {
		if graph, err := p.cache.GetGraph(ctx, key); err == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			p.logger.Info("analysis served from cache", map[string]interface{}{
				"key": key,
			})
			// Cached graphs are pre-reconciliation; file references must
			// be resolved against THIS caller's paths, not the ones of
			// whoever populated the entry.
			return ReconcilePaths(graph, req.FilePaths), nil
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	graph, err := p.run(ctx, genReq)
	duration := time.Since(start)

	status := "completed"
	if err != nil {
		status = "failed"
		if stdErr, ok := apperrors.AsStandard(err); ok {
			metrics.AnalysesFailed.WithLabelValues(string(stdErr.Code)).Inc()
		}
	}
	metrics.AnalysesTotal.WithLabelValues(status).Inc()
	metrics.AnalysisDuration.WithLabelValues(status).Observe(duration.Seconds())
	if p.obs != nil {
		p.obs.RecordAnalysis(ctx, status)
		p.obs.RecordAnalysisDuration(ctx, duration, status)
	}

	if err != nil {
		p.record(ctx, req, nil, duration, status)
		return nil, err
	}

	// The cache holds the graph BEFORE reconciliation so a later hit can
	// be reconciled against that caller's own paths.
	if p.cache != nil {
		if cacheErr := p.cache.PutGraph(ctx, key, graph); cacheErr != nil {
			p.logger.Warn("result cache write failed", map[string]interface{}{
				"error": cacheErr.Error(),
			})
		}
	}

	graph = ReconcilePaths(graph, req.FilePaths)

	p.record(ctx, req, graph, duration, status)

	p.logger.Info("analysis completed", map[string]interface{}{
		"nodes":      len(graph.Nodes),
		"edges":      len(graph.Edges),
		"durationMs": duration.Milliseconds(),
	})

	return graph, nil
}

// run produces the decoded, not-yet-reconciled graph for one generation.
func (p *Pipeline) run(ctx context.Context, genReq *models.GenerationRequest) (*models.WorkflowGraph, error) {
	raw, err := p.gen.Generate(ctx, genReq)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(raw.Text)

	doc, err := ParseGraph(normalized)
	if err != nil {
		return nil, err
	}

	if err := ValidateGraphDocument(doc); err != nil {
		return nil, err
	}

	return decodeGraph(doc)
}

func (p *Pipeline) record(ctx context.Context, req *models.AnalyzeRequest, graph *models.WorkflowGraph, duration time.Duration, status string) {
	if p.history == nil {
		return
	}

	rec := Record{
		Framework: req.FrameworkHint,
		Duration:  duration,
		Status:    status,
	}
	if graph != nil {
		rec.NodeCount = len(graph.Nodes)
		rec.EdgeCount = len(graph.Edges)
	}

	if err := p.history.Record(ctx, rec); err != nil {
		p.logger.Warn("history write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func decodeGraph(doc map[string]interface{}) (*models.WorkflowGraph, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.NewGraphInvalidError(err.Error())
	}
	var graph models.WorkflowGraph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, apperrors.NewGraphInvalidError(err.Error())
	}
	return &graph, nil
}

// requestDigest keys the result cache. Sampling is pinned (temperature 0),
// so an identical prompt is the closest-available-identical response.
func requestDigest(req *models.GenerationRequest) string {
	sum := sha256.Sum256([]byte(genai.BuildPrompt(req)))
	return "codag:analysis:" + hex.EncodeToString(sum[:])
}
