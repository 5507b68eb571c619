package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/adapter"
	"veracity-pipeline/internal/infra/metrics"
)

var _ adapter.AnalysisEngine = (*FailoverEngine)(nil)

// FailoverEngine bounds each primary call with a timeout and substitutes
// the heuristic scorer when the primary errors or times out. Engine
// failure is therefore never a document failure: Analyze only errors
// when the fallback itself would (it does not).
type FailoverEngine struct {
	primary  adapter.AnalysisEngine
	fallback adapter.AnalysisEngine
	timeout  time.Duration
	log      *zerolog.Logger
}

func NewFailoverEngine(primary, fallback adapter.AnalysisEngine, timeout time.Duration, logger *zerolog.Logger) *FailoverEngine {
	compLog := logger.With().Str("component", "FailoverEngine").Logger()
	return &FailoverEngine{primary: primary, fallback: fallback, timeout: timeout, log: &compLog}
}

func (f *FailoverEngine) Name() string { return f.primary.Name() }

func (f *FailoverEngine) Analyze(ctx context.Context, text string, opts model.AnalysisOptions) (*adapter.Analysis, error) {
	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	analysis, err := f.primary.Analyze(callCtx, text, opts)
	latency := time.Since(start)
	metrics.ObserveEngineCall(f.primary.Name(), int(latency/time.Millisecond), err == nil)

	if err == nil {
		return analysis, nil
	}
	// A cancelled caller (worker shutdown) is not an engine failure; the
	// fallback verdict would be thrown away anyway.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.log.Warn().Err(err).Str("provider", f.primary.Name()).Dur("latency", latency).
		Msg("engine call failed, substituting heuristic result")
	metrics.IncEngineFallback()
	return f.fallback.Analyze(ctx, text, opts)
}
