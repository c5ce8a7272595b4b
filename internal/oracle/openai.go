package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/worker"
)

// OpenAIProvider implements Provider using OpenAI chat completions.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	tokens  int
	timeout time.Duration
	limiter *worker.Limiter
}

// NewOpenAIProvider creates a new OpenAI oracle from config.
func NewOpenAIProvider(cfg model.OracleConfig, limiter *worker.Limiter) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle: OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4o
	}
	tokens := cfg.MaxTokens
	if tokens <= 0 {
		tokens = 1024
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limiter.SetServiceRate(worker.ServiceOracle, cfg.RequestsPerSecond, cfg.Burst)

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   modelName,
		tokens:  tokens,
		timeout: timeout,
		limiter: limiter,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return "openai" }

// Model returns the configured model identifier, stamped on assessments.
func (p *OpenAIProvider) Model() string { return p.model }

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Assess sends one adjudication request and returns the raw response text.
func (p *OpenAIProvider) Assess(ctx context.Context, req Request) (string, error) {
	if err := p.limiter.Wait(ctx, worker.ServiceOracle); err != nil {
		return "", fmt.Errorf("oracle: rate limit wait: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req),
			},
		},
		MaxTokens:   p.tokens,
		Temperature: 0.1, // verdicts should be as deterministic as the model allows
	})
	if err != nil {
		return "", fmt.Errorf("oracle: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle: openai returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
