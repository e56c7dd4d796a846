// Package llm writes the narrative sections of the weekly report through
// either the Anthropic API or an OpenAI-compatible chat completions gateway.
package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"qualityreport/internal/httpx"
)

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// completer sends one system+user prompt pair and returns the reply text.
type completer interface {
	complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error)
}

type anthropicCompleter struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func newAnthropicCompleter(apiKey, model string, maxTokens int, temperature float64, opts ...option.RequestOption) *anthropicCompleter {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &anthropicCompleter{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (a *anthropicCompleter) complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(a.temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("anthropic API error: %w", err)
	}
	usage := Usage{InputTokens: message.Usage.InputTokens, OutputTokens: message.Usage.OutputTokens}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d", len(block.Text), usage.InputTokens, usage.OutputTokens)
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in anthropic response")
}

// --- Gateway (OpenAI-style chat completions) ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type gatewayCompleter struct {
	url         string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

func (g *gatewayCompleter) complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	req := httpx.Request{
		Service: "gateway",
		Method:  http.MethodPost,
		URL:     g.url,
		Token:   g.apiKey,
		Body: chatRequest{
			Model: g.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			MaxTokens:   g.maxTokens,
			Temperature: g.temperature,
		},
	}
	var parsed chatResponse
	if err := httpx.DoJSON(ctx, g.client, req, &parsed); err != nil {
		return "", Usage{}, err
	}
	if parsed.Error != nil {
		return "", Usage{}, fmt.Errorf("gateway error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("no choices in gateway response")
	}
	usage := Usage{}
	if parsed.Usage != nil {
		usage.InputTokens = parsed.Usage.PromptTokens
		usage.OutputTokens = parsed.Usage.CompletionTokens
	}
	text := parsed.Choices[0].Message.Content
	log.Printf("llm gateway response size=%d tokens_in=%d tokens_out=%d", len(text), usage.InputTokens, usage.OutputTokens)
	return text, usage, nil
}
