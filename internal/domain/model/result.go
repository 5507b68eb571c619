package model

import "time"

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Risk thresholds over the accuracy score.
const (
	riskLowFloor    = 85.0
	riskMediumFloor = 70.0
	riskHighFloor   = 50.0
)

// RiskForAccuracy buckets an accuracy score into a risk level.
func RiskForAccuracy(accuracy float64) RiskLevel {
	switch {
	case accuracy >= riskLowFloor:
		return RiskLow
	case accuracy >= riskMediumFloor:
		return RiskMedium
	case accuracy >= riskHighFloor:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// FlaggedSpan is a passage the engine (or the heuristic scorer) marked
// as a likely hallucination.
type FlaggedSpan struct {
	Excerpt string `json:"excerpt"`
	Reason  string `json:"reason"`
}

// TokenUsage as reported by the engine; best-effort, may be absent.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// maxExcerptLen bounds the stored content excerpt per result row.
const maxExcerptLen = 2000

// AnalysisResult is the persisted outcome for one document of a batch.
type AnalysisResult struct {
	ID           string
	BatchID      string
	DocumentID   string
	Filename     string
	Accuracy     float64
	RiskLevel    RiskLevel
	FlaggedSpans []FlaggedSpan
	Excerpt      string
	Model        string
	Fallback     bool
	InputTokens  int
	OutputTokens int
	Cost         float64
	CreatedAt    time.Time
}

// Truncate caps content to the stored excerpt size.
func Truncate(content string) string {
	if len(content) <= maxExcerptLen {
		return content
	}
	return content[:maxExcerptLen]
}
