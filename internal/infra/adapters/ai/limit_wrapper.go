package ai

import (
	"context"

	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AnalysisEngine = (*limitedEngine)(nil)

type limitedEngine struct {
	inner adapter.AnalysisEngine
	sem   chan struct{}
}

// NewLimitedEngine caps concurrent engine calls across all workers in
// the process.
func NewLimitedEngine(inner adapter.AnalysisEngine, maxConcurrent int) adapter.AnalysisEngine {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedEngine{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedEngine) Name() string { return l.inner.Name() }

func (l *limitedEngine) Analyze(ctx context.Context, text string, opts model.AnalysisOptions) (*adapter.Analysis, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Analyze(ctx, text, opts)
}
