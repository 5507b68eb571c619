// Shared prompt and verdict handling for the engine adapters.
package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"veracity-pipeline/internal/domain/model"
)

const analysisSystemPrompt = `You are a hallucination detector. Evaluate the factual accuracy of the provided document text.
Respond with a single JSON object and nothing else:
{"accuracy": <0-100 number>, "risk_level": "low"|"medium"|"high"|"critical", "flagged_spans": [{"excerpt": "...", "reason": "..."}]}`

type engineVerdict struct {
	Accuracy     float64             `json:"accuracy"`
	RiskLevel    string              `json:"risk_level"`
	FlaggedSpans []model.FlaggedSpan `json:"flagged_spans"`
}

// parseVerdict extracts the verdict object from an assistant reply.
// Providers wrap JSON in fences or prose often enough that we cut out
// the outermost object before decoding.
func parseVerdict(content string) (*engineVerdict, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in engine reply")
	}
	var v engineVerdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return nil, err
	}
	if v.Accuracy < 0 || v.Accuracy > 100 {
		return nil, errors.New("accuracy out of range")
	}
	return &v, nil
}

func riskFromVerdict(v *engineVerdict) model.RiskLevel {
	switch model.RiskLevel(strings.ToLower(v.RiskLevel)) {
	case model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskCritical:
		return model.RiskLevel(strings.ToLower(v.RiskLevel))
	default:
		return model.RiskForAccuracy(v.Accuracy)
	}
}
