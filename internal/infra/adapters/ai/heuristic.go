package ai

import (
	"context"
	"regexp"

	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/adapter"
)

var _ adapter.AnalysisEngine = (*HeuristicScorer)(nil)

const heuristicBaseline = 95.0

// suspiciousPatterns are phrase shapes that correlate with unsupported
// claims. Each match subtracts its penalty from the baseline accuracy.
var suspiciousPatterns = []struct {
	re      *regexp.Regexp
	penalty float64
	reason  string
}{
	{regexp.MustCompile(`(?i)\bstudies (show|have shown|prove)\b`), 10, "unattributed studies claim"},
	{regexp.MustCompile(`(?i)\bexperts (agree|say|believe)\b`), 10, "unattributed expert consensus"},
	{regexp.MustCompile(`(?i)\bit is well known that\b`), 8, "appeal to common knowledge"},
	{regexp.MustCompile(`(?i)\bresearch (proves|confirms)\b`), 10, "overstated research claim"},
	{regexp.MustCompile(`(?i)\b(always|never) (works|fails|happens)\b`), 7, "absolute claim"},
	{regexp.MustCompile(`(?i)\b100% (accurate|effective|safe|certain)\b`), 12, "absolute percentage claim"},
	{regexp.MustCompile(`(?i)\bguaranteed to\b`), 8, "guarantee language"},
	{regexp.MustCompile(`(?i)\beveryone knows\b`), 8, "appeal to universality"},
	{regexp.MustCompile(`(?i)\bscientists have (discovered|found) that\b`), 9, "unattributed science claim"},
	{regexp.MustCompile(`(?i)\bwithout (a )?doubt\b`), 5, "certainty language"},
}

// HeuristicScorer is the local fallback engine: pattern-based scoring
// that works with every external dependency down. It never fails.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer { return &HeuristicScorer{} }

func (h *HeuristicScorer) Name() string { return "heuristic" }

func (h *HeuristicScorer) Analyze(_ context.Context, text string, _ model.AnalysisOptions) (*adapter.Analysis, error) {
	accuracy := heuristicBaseline
	var spans []model.FlaggedSpan

	for _, p := range suspiciousPatterns {
		for _, match := range p.re.FindAllString(text, -1) {
			accuracy -= p.penalty
			spans = append(spans, model.FlaggedSpan{Excerpt: match, Reason: p.reason})
		}
	}
	if accuracy < 0 {
		accuracy = 0
	}

	return &adapter.Analysis{
		Accuracy:     accuracy,
		RiskLevel:    model.RiskForAccuracy(accuracy),
		FlaggedSpans: spans,
		Model:        "heuristic-v1",
		Fallback:     true,
	}, nil
}
