// Package openaiclient implements the AI provider gateway for
// OpenAI-compatible chat-completion endpoints (OpenAI, Groq, and the Google
// Gemini compatibility endpoint).
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apetrov/resume-assistant/internal/ai"
	ailog "github.com/apetrov/resume-assistant/internal/logger"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	googleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	requestTimeout = 30 * time.Second
)

// Client is an ai.Provider backed by an OpenAI-compatible HTTP endpoint.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// New builds a client for the given provider configuration. The provider
// discriminant selects the endpoint base URL; unknown discriminants and
// missing API keys fail here, not on first use.
func New(cfg ai.Config, logger *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	clientCfg := openai.DefaultConfig(apiKey)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "groq":
		clientCfg.BaseURL = groqBaseURL
	case "openai":
		// Default base URL.
	case "google":
		clientCfg.BaseURL = googleBaseURL
	default:
		return nil, fmt.Errorf("unsupported openai-compatible provider: %s", cfg.Provider)
	}

	clientCfg.HTTPClient = &http.Client{Timeout: requestTimeout}

	return &Client{
		api:         openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      ailog.WithCommonFields(logger, cfg.Provider, cfg.Model),
	}, nil
}

// Chat sends a single chat-completion request and returns the first choice.
func (c *Client) Chat(ctx context.Context, messages []ai.Message) (*ai.Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(messages),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	c.logger.Debug("chat completion response",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return &ai.Response{
		Content: resp.Choices[0].Message.Content,
		Usage: &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func convertMessages(messages []ai.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
