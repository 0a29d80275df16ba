package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures an OpenAI-compatible endpoint. OpenRouter is
// reached by setting BaseURL and, optionally, the attribution headers.
type OpenAIOptions struct {
	APIKey   string
	BaseURL  string
	Model    string
	Referrer string
	Title    string
	// MaxTokens caps completion length; zero leaves it to the server.
	MaxTokens int
}

type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// attributionTransport adds fixed headers to every outgoing request.
type attributionTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			out.Header.Add(k, v)
		}
	}
	return t.base.RoundTrip(out)
}

func NewOpenAI(opts OpenAIOptions) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	h := http.Header{}
	if opts.Referrer != "" {
		h.Set("HTTP-Referer", opts.Referrer)
	}
	if opts.Title != "" {
		h.Set("X-Title", opts.Title)
	}
	if len(h) > 0 {
		cfg.HTTPClient = &http.Client{Transport: attributionTransport{base: http.DefaultTransport, headers: h}}
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens: c.maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return Response{}, fmt.Errorf("openai %s (status %d): %w", c.model, apiErr.HTTPStatusCode, err)
		}
		return Response{}, fmt.Errorf("openai %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}
