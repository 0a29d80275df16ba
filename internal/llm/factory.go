package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"beautybot/internal/config"
)

// answerMaxTokens leaves headroom over the rune cap applied by the gateway.
const answerMaxTokens = 300

// ErrNotConfigured means the selected provider has no credentials.
var ErrNotConfigured = errors.New("llm provider not configured")

// Factory creates LLM clients with consistent logic
type Factory struct {
	GeminiAPIKey       string
	GeminiModel        string
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenaiModel        string
	OpenRouterReferrer string
	OpenRouterTitle    string
	YandexOAuthToken   string
	YandexFolderID     string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		GeminiAPIKey:       cfg.GeminiAPIKey,
		GeminiModel:        cfg.GeminiModel,
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenaiModel:        cfg.OpenAIModel,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
}

// CreateClient builds the client for provider. Missing credentials yield
// ErrNotConfigured without any network I/O.
func (f *Factory) CreateClient(ctx context.Context, provider string) (Client, error) {
	switch config.LLMProvider(strings.ToLower(provider)) {
	case config.ProviderGemini:
		if f.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", ErrNotConfigured)
		}
		return NewGemini(ctx, f.GeminiAPIKey, f.GeminiModel)
	case config.ProviderOpenAI:
		if f.OpenaiAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", ErrNotConfigured)
		}
		return NewOpenAI(OpenAIOptions{
			APIKey:    f.OpenaiAPIKey,
			BaseURL:   f.OpenaiBaseURL,
			Model:     f.OpenaiModel,
			Referrer:  f.OpenRouterReferrer,
			Title:     f.OpenRouterTitle,
			MaxTokens: answerMaxTokens,
		}), nil
	case config.ProviderYandex:
		if f.YandexOAuthToken == "" || f.YandexFolderID == "" {
			return nil, fmt.Errorf("%w: YANDEX_OAUTH_TOKEN or YANDEX_FOLDER_ID is empty", ErrNotConfigured)
		}
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
