package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/adapter"
)

var _ adapter.AnalysisEngine = (*GeminiAdapter)(nil)

// GeminiAdapter implements adapter.AnalysisEngine using the official SDK.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Analyze(ctx context.Context, text string, opts model.AnalysisOptions) (*adapter.Analysis, error) {
	modelName := opts.Model()
	if strings.TrimSpace(modelName) == "" || !strings.HasPrefix(strings.ToLower(modelName), "gemini") {
		modelName = g.defaultModel
	}

	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}},
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: analysisSystemPrompt}}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return nil, err
	}

	reply := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		reply = resp.Candidates[0].Content.Parts[0].Text
	}
	if reply == "" {
		return nil, errors.New("gemini: empty reply")
	}

	verdict, err := parseVerdict(reply)
	if err != nil {
		return nil, fmt.Errorf("parse verdict: %w", err)
	}

	var usage *model.TokenUsage
	if resp.UsageMetadata != nil {
		usage = &model.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &adapter.Analysis{
		Accuracy:     verdict.Accuracy,
		RiskLevel:    riskFromVerdict(verdict),
		FlaggedSpans: verdict.FlaggedSpans,
		Model:        modelName,
		Usage:        usage,
	}, nil
}
