package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AnalysisEngine = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.AnalysisEngine against any
// OpenAI-compatible Chat Completions gateway.
type OpenAIAdapter struct {
	apiKey string
	base   string // e.g., https://api.openai.com/v1
	model  string
	client *http.Client
}

func NewOpenAIAdapter(apiKey, model, base string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAIAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		model:  model,
		client: &http.Client{Timeout: 90 * time.Second},
	}, nil
}

func (o *OpenAIAdapter) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAIAdapter) Analyze(ctx context.Context, text string, opts model.AnalysisOptions) (*adapter.Analysis, error) {
	modelName := opts.Model()
	if modelName == "" {
		modelName = o.model
	}

	reqBody := struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}{
		Model: modelName,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: text},
		},
	}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == "" {
		return nil, errors.New("no choice content")
	}

	verdict, err := parseVerdict(payload.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parse verdict: %w", err)
	}

	usage := &model.TokenUsage{
		InputTokens:  payload.Usage.PromptTokens,
		OutputTokens: payload.Usage.CompletionTokens,
		TotalTokens:  payload.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		// Gateways occasionally omit usage; estimate the prompt side so
		// cost accounting still sees something.
		usage.InputTokens = estimateTokens(modelName, analysisSystemPrompt+text)
		usage.TotalTokens = usage.InputTokens
	}

	return &adapter.Analysis{
		Accuracy:     verdict.Accuracy,
		RiskLevel:    riskFromVerdict(verdict),
		FlaggedSpans: verdict.FlaggedSpans,
		Model:        modelName,
		Usage:        usage,
	}, nil
}

// estimateTokens is best-effort tokenization; on unknown models it falls
// back to the cl100k base encoding.
func estimateTokens(modelName, text string) int {
	tke, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return len(text) / 4
		}
	}
	return len(tke.Encode(text, nil, nil))
}
