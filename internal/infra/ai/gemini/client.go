package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	domai "github.com/bryanwahyu/reviewgate/internal/domain/ai"
)

type Client struct {
	client *genai.Client
	Model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	cli, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Client{client: cli, Model: model}, nil
}

func (c *Client) Close() error { return c.client.Close() }

func (c *Client) Chat(ctx context.Context, p domai.Prompt, opts domai.ChatOptions) (domai.ChatResult, error) {
	name := opts.Model
	if name == "" {
		name = c.Model
	}
	model := c.client.GenerativeModel(name)
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	model.ResponseMIMEType = "application/json"
	if p.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		// genai surfaces quota errors as googleapi 429s; keep the message so
		// the retry classifier can pick it up
		return domai.ChatResult{}, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domai.ChatResult{}, fmt.Errorf("generate content: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return domai.ChatResult{
		Content:    sb.String(),
		ProviderID: "gemini",
		Model:      name,
	}, nil
}
