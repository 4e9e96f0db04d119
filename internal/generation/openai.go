package generation

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// Client generates text through an OpenAI-compatible chat-completions
// endpoint. The model is chosen per call so one client can serve every
// candidate in a fallback chain.
type Client struct {
	api *openai.Client
}

// Config configures the generation backend. APIKeyEnv names the env var
// carrying the credential; an empty value means the backend is absent
// and chat runs degraded.
type Config struct {
	BaseURL   string
	APIKeyEnv string
}

// NewClient creates a generation client, or (nil, nil) when no
// credential is configured. Callers treat a nil client as chat disabled.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		return nil, errors.New("api key env name not configured")
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, nil
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{api: openai.NewClientWithConfig(clientCfg)}, nil
}

// Generate runs one completion with the named model and returns its text.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
