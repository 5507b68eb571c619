package model

// ModelRate holds USD rates per 1K tokens for one engine model.
type ModelRate struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Static rate table. Cost accounting is advisory: an unknown model or
// absent usage yields zero cost, never an error.
var modelRates = map[string]ModelRate{
	"gpt-4o":           {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":      {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":      {InputPer1K: 0.01, OutputPer1K: 0.03},
	"gemini-2.0-flash": {InputPer1K: 0.0001, OutputPer1K: 0.0004},
	"gemini-1.5-pro":   {InputPer1K: 0.00125, OutputPer1K: 0.005},
}

// CostFor derives the processing cost of one engine call.
func CostFor(modelName string, usage *TokenUsage) float64 {
	if usage == nil {
		return 0
	}
	rate, ok := modelRates[modelName]
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1000*rate.InputPer1K +
		float64(usage.OutputTokens)/1000*rate.OutputPer1K
}
