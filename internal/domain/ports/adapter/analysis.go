package adapter

import (
	"context"

	"veracity-pipeline/internal/domain/model"
)

// Analysis is the scored classification of one document's text.
type Analysis struct {
	Accuracy     float64
	RiskLevel    model.RiskLevel
	FlaggedSpans []model.FlaggedSpan
	Model        string
	Fallback     bool
	// Usage is best-effort; nil when the provider does not report it.
	Usage *model.TokenUsage
}

// AnalysisEngine is the port for the scoring backend. Implementations
// must honor ctx cancellation; callers bound each call with a timeout.
type AnalysisEngine interface {
	Name() string
	Analyze(ctx context.Context, text string, opts model.AnalysisOptions) (*Analysis, error)
}
