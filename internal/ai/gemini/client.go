// Package gemini implements the AI provider gateway for the native Google
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apetrov/resume-assistant/internal/ai"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// generateFunc matches genai Models.GenerateContent and provides a seam for
// tests.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client wraps the Google GenAI client behind the ai.Provider contract.
type Client struct {
	generate    generateFunc
	modelName   string
	temperature float32
	maxTokens   int
}

// New creates a client configured for the Gemini API backend. A missing API
// key is a construction error.
func New(ctx context.Context, cfg ai.Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Client{
		generate:    client.Models.GenerateContent,
		modelName:   model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Chat sends the conversation to Gemini and returns the concatenated textual
// response. The leading system message, if any, is passed as the system
// instruction.
func (c *Client) Chat(ctx context.Context, messages []ai.Message) (*ai.Response, error) {
	if c == nil || c.generate == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	config := &genai.GenerateContentConfig{}
	if c.temperature > 0 {
		config.Temperature = genai.Ptr(c.temperature)
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = int32(c.maxTokens)
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}

		switch m.Role {
		case ai.RoleSystem:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			}
		case ai.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: text}},
			})
		}
	}

	if len(contents) == 0 {
		return nil, errors.New("at least one user message is required")
	}

	resp, err := c.generate(ctx, c.modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	return &ai.Response{
		Content: output,
		Usage:   usageFromMetadata(resp.UsageMetadata),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

func usageFromMetadata(meta *genai.GenerateContentResponseUsageMetadata) *ai.Usage {
	if meta == nil {
		return nil
	}
	return &ai.Usage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}
