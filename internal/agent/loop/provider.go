package loop

import (
	"context"
	"fmt"
	"net/http"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/stockroom-app/server/internal/agent/model"
	logx "github.com/stockroom-app/server/pkg/logger"
)

// Provider sends one generateContent request. Implementations must not retry.
type Provider interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Model() string
}

// GeminiProvider talks to the Gemini API through the genai SDK.
type GeminiProvider struct {
	client   *genai.Client
	model    string
	handlers []einocb.Handler
}

// NewGeminiProvider builds a genai client from cfg. handlers observe every call.
func NewGeminiProvider(ctx context.Context, cfg model.GeminiConfig, handlers ...einocb.Handler) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: cfg.Model, handlers: handlers}, nil
}

func (p *GeminiProvider) Model() string {
	return p.model
}

func (p *GeminiProvider) GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	observed := len(p.handlers) > 0
	if observed {
		ctx = einocb.InitCallbacks(ctx, &einocb.RunInfo{
			Name:      p.model,
			Type:      "Gemini",
			Component: components.ComponentOfChatModel,
		}, p.handlers...)
		ctx = einocb.OnStart(ctx, &einomodel.CallbackInput{Config: callbackConfig(p.model, cfg)})
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		if observed {
			einocb.OnError(ctx, err)
		}
		return nil, err
	}

	if observed {
		u := model.UsageFrom(resp.UsageMetadata)
		einocb.OnEnd(ctx, &einomodel.CallbackOutput{
			Config: callbackConfig(p.model, cfg),
			TokenUsage: &einomodel.TokenUsage{
				PromptTokens:     u.PromptTokens,
				CompletionTokens: u.CompletionTokens,
				TotalTokens:      u.TotalTokens,
			},
		})
	}
	return resp, nil
}

func callbackConfig(modelName string, cfg *genai.GenerateContentConfig) *einomodel.Config {
	c := &einomodel.Config{Model: modelName}
	if cfg == nil {
		return c
	}
	c.MaxTokens = int(cfg.MaxOutputTokens)
	if cfg.Temperature != nil {
		c.Temperature = *cfg.Temperature
	}
	return c
}

// blockedFinishReasons end the loop as a provider failure.
var blockedFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonRecitation:        true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonProhibitedContent: true,
	genai.FinishReasonSPII:              true,
}

// checkResponse returns the first candidate, or an error when the response
// was blocked or carries no candidate.
func checkResponse(resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil {
		return nil, fmt.Errorf("empty provider response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, fmt.Errorf("provider returned no candidates")
	}
	cand := resp.Candidates[0]
	if blockedFinishReasons[cand.FinishReason] {
		return nil, fmt.Errorf("generation stopped: %s", cand.FinishReason)
	}
	return cand, nil
}
