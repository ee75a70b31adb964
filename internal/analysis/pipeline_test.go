// internal/analysis/pipeline_test.go
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "codag/internal/common/errors"
	"codag/internal/common/logger"
	"codag/internal/models"
)

// ==========================
// Test Doubles
// ==========================

type stubGenerator struct {
	text  string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, req *models.GenerationRequest) (*models.RawResponse, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &models.RawResponse{Text: g.text, FinishSignal: models.FinishComplete}, nil
}

// mapCache round-trips entries through JSON like the redis-backed cache,
// so stored graphs are isolated from later mutation.
type mapCache struct {
	entries map[string][]byte
	puts    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) GetGraph(ctx context.Context, key string) (*models.WorkflowGraph, error) {
	raw, ok := c.entries[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	var graph models.WorkflowGraph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, err
	}
	return &graph, nil
}

func (c *mapCache) PutGraph(ctx context.Context, key string, graph *models.WorkflowGraph) error {
	raw, err := json.Marshal(graph)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.puts++
	return nil
}

type captureUsage struct {
	statuses  []string
	durations []time.Duration
}

func (u *captureUsage) RecordAnalysis(ctx context.Context, status string) {
	u.statuses = append(u.statuses, status)
}

func (u *captureUsage) RecordAnalysisDuration(ctx context.Context, duration time.Duration, status string) {
	u.durations = append(u.durations, duration)
}

type captureRecorder struct {
	records []Record
	err     error
}

func (r *captureRecorder) Record(ctx context.Context, rec Record) error {
	r.records = append(r.records, rec)
	return r.err
}

// ==========================
// Pipeline Tests
// ==========================

const fencedGraph = "```json\n" +
	`{"nodes": [
		{"id": "a", "type": "llm_call", "source": {"file": "/tmp/abc/main.py", "line": 3}},
		{"id": "b", "type": "parse"}
	],
	"edges": [{"from": "a", "to": "b", "sourceLocation": {"file": "main.py"}}]}` +
	"\n```"

func analyzeRequest() *models.AnalyzeRequest {
	return &models.AnalyzeRequest{
		Code:          "def run(): ...",
		FrameworkHint: "langchain",
		FilePaths:     []string{"src/app/main.py", "src/utils/io.py"},
	}
}

func TestPipeline_Analyze_Success(t *testing.T) {
	gen := &stubGenerator{text: fencedGraph}
	history := &captureRecorder{}
	p := NewPipeline(gen, nil, history, logger.NewTestLogger(t))

	graph, err := p.Analyze(context.Background(), analyzeRequest())

	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 1)

	// Fence stripped, JSON decoded, paths reconciled against the input.
	assert.Equal(t, "src/app/main.py", graph.Nodes[0].Source.File)
	assert.Equal(t, 3, graph.Nodes[0].Source.Line)
	assert.Equal(t, "src/app/main.py", graph.Edges[0].SourceLocation.File)

	require.Len(t, history.records, 1)
	assert.Equal(t, "completed", history.records[0].Status)
	assert.Equal(t, 2, history.records[0].NodeCount)
	assert.Equal(t, 1, history.records[0].EdgeCount)
	assert.Equal(t, "langchain", history.records[0].Framework)
}

func TestPipeline_Analyze_TruncatedRecovered(t *testing.T) {
	gen := &stubGenerator{text: `{"nodes": [{"id": "a"}, {"id": "b"`}
	p := NewPipeline(gen, nil, nil, logger.NewTestLogger(t))

	graph, err := p.Analyze(context.Background(), analyzeRequest())

	require.NoError(t, err)
	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "a", graph.Nodes[0].ID)
}

func TestPipeline_Analyze_GeneratorErrorShortCircuits(t *testing.T) {
	gen := &stubGenerator{err: apperrors.NewTokenLimitExceededError()}
	history := &captureRecorder{}
	p := NewPipeline(gen, nil, history, logger.NewTestLogger(t))

	graph, err := p.Analyze(context.Background(), analyzeRequest())

	assert.Nil(t, graph)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTokenLimitExceeded))

	require.Len(t, history.records, 1)
	assert.Equal(t, "failed", history.records[0].Status)
	assert.Equal(t, 0, history.records[0].NodeCount)
}

func TestPipeline_Analyze_InvalidGraphShape(t *testing.T) {
	gen := &stubGenerator{text: `{"edges": []}`}
	p := NewPipeline(gen, nil, nil, logger.NewTestLogger(t))

	_, err := p.Analyze(context.Background(), analyzeRequest())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGraphInvalid))
}

func TestPipeline_Analyze_CacheHitSkipsGeneration(t *testing.T) {
	gen := &stubGenerator{text: fencedGraph}
	cache := newMapCache()
	p := NewPipeline(gen, cache, nil, logger.NewTestLogger(t))

	first, err := p.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, cache.puts)

	second, err := p.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls, "cache hit must not call the generator")
	assert.Equal(t, len(first.Nodes), len(second.Nodes))
}

func TestPipeline_Analyze_CacheHitReconciledPerCaller(t *testing.T) {
	gen := &stubGenerator{
		text: `{"nodes": [{"id": "a", "source": {"file": "/tmp/abc/main.py"}}]}`,
	}
	cache := newMapCache()
	p := NewPipeline(gen, cache, nil, logger.NewTestLogger(t))

	first, err := p.Analyze(context.Background(), &models.AnalyzeRequest{
		Code:      "def run(): ...",
		FilePaths: []string{"src/app/main.py"},
	})
	require.NoError(t, err)
	assert.Equal(t, "src/app/main.py", first.Nodes[0].Source.File)

	// Same code, different caller paths: the hit must be reconciled against
	// this caller's paths, not the ones of the caller that filled the cache.
	second, err := p.Analyze(context.Background(), &models.AnalyzeRequest{
		Code:      "def run(): ...",
		FilePaths: []string{"lib/app/main.py"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls, "identical code must still hit the cache")
	assert.Equal(t, "lib/app/main.py", second.Nodes[0].Source.File)
}

func TestPipeline_Analyze_DistinctRequestsDistinctKeys(t *testing.T) {
	gen := &stubGenerator{text: fencedGraph}
	cache := newMapCache()
	p := NewPipeline(gen, cache, nil, logger.NewTestLogger(t))

	_, err := p.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)

	other := analyzeRequest()
	other.Code = "def other(): ..."
	_, err = p.Analyze(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, 2, gen.calls)
	assert.Len(t, cache.entries, 2)
}

func TestPipeline_Analyze_ObservabilityRecorded(t *testing.T) {
	usage := &captureUsage{}

	okGen := &stubGenerator{text: fencedGraph}
	p := NewPipeline(okGen, nil, nil, logger.NewTestLogger(t)).WithObservability(usage)
	_, err := p.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)

	failGen := &stubGenerator{err: apperrors.NewSafetyBlockedError()}
	p = NewPipeline(failGen, nil, nil, logger.NewTestLogger(t)).WithObservability(usage)
	_, err = p.Analyze(context.Background(), analyzeRequest())
	require.Error(t, err)

	assert.Equal(t, []string{"completed", "failed"}, usage.statuses)
	assert.Len(t, usage.durations, 2)
}

func TestPipeline_Analyze_HistoryFailureIsNotFatal(t *testing.T) {
	gen := &stubGenerator{text: fencedGraph}
	history := &captureRecorder{err: errors.New("db down")}
	p := NewPipeline(gen, nil, history, logger.NewTestLogger(t))

	graph, err := p.Analyze(context.Background(), analyzeRequest())

	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 2)
}
