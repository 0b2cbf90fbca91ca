package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/retry"
)

// GeminiClient talks to Google Gemini through the generative-ai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, b config.Backend) (*GeminiClient, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key required")
	}
	opts := []option.ClientOption{option.WithAPIKey(b.APIKey)}
	if b.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(b.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client, model: orDefault(b.Model, defaultGeminiModel)}, nil
}

func (c *GeminiClient) Provider() string { return config.ProviderGemini }

// Complete runs one GenerateContent call with the instruction as the system prompt.
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(maxReplyTokens)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return textFromResponse(resp)
}

// Close releases the SDK client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// classifyGeminiError maps SDK errors onto the same transient/terminal split as HTTP providers.
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return statusFailure(config.ProviderGemini, apiErr.Code, []byte(apiErr.Message))
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return retry.Terminal(fmt.Errorf("gemini: %w", err))
	}
	return fmt.Errorf("gemini: generate content: %w", err)
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", retry.Terminal(fmt.Errorf("gemini: no candidates in response"))
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", retry.Terminal(fmt.Errorf("gemini: no content in response"))
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
