package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/huddle/pkg/upstream"
	"github.com/papercomputeco/huddle/pkg/utils"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

const (
	DefaultTimeout     = 20 * time.Second
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.2
)

// CallerConfig holds configuration for creating a CallFunc.
type CallerConfig struct {
	Provider    string // "openai", "anthropic", "ollama" or "gemini"
	Model       string // e.g. "gpt-4o-mini", "gemini-2.0-flash"
	APIKey      string // explicit API key (highest priority)
	BaseURL     string // override base URL
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// HasCredentials reports whether a caller could be built from cfg.
func HasCredentials(cfg CallerConfig) bool {
	provider := strings.ToLower(cfg.Provider)
	return provider == ProviderOllama || resolveAPIKey(cfg.APIKey, provider) != ""
}

// NewCaller creates a CallFunc for the configured provider.
// Resolution order for the API key:
//  1. Explicit APIKey in config
//  2. Environment variables (see resolveAPIKey)
//
// A missing key is a configuration error; only ollama runs without one.
func NewCaller(cfg CallerConfig) (CallFunc, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	switch provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	apiKey := resolveAPIKey(cfg.APIKey, provider)
	if apiKey == "" && provider != ProviderOllama {
		return nil, upstream.NotConfigured(provider, "missing API key (set llm.api_key or "+envHint(provider)+")")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	model := cfg.Model

	switch provider {
	case ProviderOpenAI:
		if model == "" {
			model = "gpt-4o-mini"
		}
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return newOpenAICaller(cfg, apiKey, model, baseURL), nil

	case ProviderAnthropic:
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		return newAnthropicCaller(cfg, apiKey, model, baseURL), nil

	case ProviderOllama:
		if model == "" {
			model = "llama3.2"
		}
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return newOllamaCaller(cfg, model, baseURL), nil

	case ProviderGemini:
		if model == "" {
			model = "gemini-2.0-flash"
		}
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com"
		}
		return newGeminiCaller(cfg, apiKey, model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func resolveAPIKey(explicit, provider string) string {
	if key := strings.TrimSpace(explicit); key != "" {
		return key
	}
	for _, name := range envKeys(provider) {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

func envKeys(provider string) []string {
	switch provider {
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "LLM_API_KEY"}
	case ProviderOllama:
		return nil
	default:
		return []string{"LLM_API_KEY", "OPENAI_API_KEY"}
	}
}

func envHint(provider string) string {
	return strings.Join(envKeys(provider), " or ")
}

// post sends a JSON body and returns the response body of a 2xx reply.
func post(ctx context.Context, cfg CallerConfig, service, endpoint string, headers map[string]string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstream.NewStatusError(service, resp.StatusCode, body)
	}
	return body, nil
}

// --- OpenAI caller ---

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat *openAIRespFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRespFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newOpenAICaller(cfg CallerConfig, apiKey, model, baseURL string) CallFunc {
	return func(ctx context.Context, p Prompt) (string, error) {
		reqBody := openAIRequest{
			Model:          model,
			Messages:       messages(p),
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
			ResponseFormat: &openAIRespFormat{Type: "json_object"},
		}

		body, err := post(ctx, cfg, ProviderOpenAI, baseURL+"/v1/chat/completions",
			map[string]string{"Authorization": "Bearer " + apiKey}, reqBody)
		if err != nil {
			return "", err
		}

		var result openAIResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return "", &upstream.ContentError{Service: ProviderOpenAI, Op: "chat", Err: err}
		}
		if result.Error != nil {
			return "", fmt.Errorf("openai error: %s", result.Error.Message)
		}
		if len(result.Choices) == 0 {
			return "", &upstream.ContentError{Service: ProviderOpenAI, Op: "chat", Err: errors.New("no choices")}
		}
		return result.Choices[0].Message.Content, nil
	}
}

// --- Anthropic caller ---

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newAnthropicCaller(cfg CallerConfig, apiKey, model, baseURL string) CallFunc {
	return func(ctx context.Context, p Prompt) (string, error) {
		reqBody := anthropicRequest{
			Model:       model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			System:      p.System,
			Messages: []chatMessage{
				{Role: "user", Content: p.User + "\n\nReturn ONLY valid JSON, no markdown or extra text."},
			},
		}

		body, err := post(ctx, cfg, ProviderAnthropic, baseURL+"/v1/messages", map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": "2023-06-01",
		}, reqBody)
		if err != nil {
			return "", err
		}

		var result anthropicResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return "", &upstream.ContentError{Service: ProviderAnthropic, Op: "messages", Err: err}
		}
		if result.Error != nil {
			return "", fmt.Errorf("anthropic error: %s", result.Error.Message)
		}
		if len(result.Content) == 0 {
			return "", &upstream.ContentError{Service: ProviderAnthropic, Op: "messages", Err: errors.New("no content")}
		}
		return result.Content[0].Text, nil
	}
}

// --- Ollama caller ---

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func newOllamaCaller(cfg CallerConfig, model, baseURL string) CallFunc {
	return func(ctx context.Context, p Prompt) (string, error) {
		reqBody := ollamaChatRequest{
			Model:    model,
			Messages: messages(p),
			Stream:   false,
			Format:   "json",
			Options: map[string]any{
				"temperature": cfg.Temperature,
				"num_predict": cfg.MaxTokens,
			},
		}

		body, err := post(ctx, cfg, ProviderOllama, baseURL+"/api/chat", nil, reqBody)
		if err != nil {
			return "", err
		}

		var result ollamaChatResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return "", &upstream.ContentError{Service: ProviderOllama, Op: "chat", Err: err}
		}
		return result.Message.Content, nil
	}
}

// --- Gemini caller ---

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig geminiGeneration `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGeneration struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func newGeminiCaller(cfg CallerConfig, apiKey, model, baseURL string) CallFunc {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		baseURL, url.PathEscape(model), url.QueryEscape(apiKey))

	return func(ctx context.Context, p Prompt) (string, error) {
		// No separate system role on this endpoint; the system text is prepended.
		text := strings.TrimSpace(p.System + "\n\n" + p.User)
		reqBody := geminiRequest{
			Contents: []geminiContent{
				{Role: "user", Parts: []geminiPart{{Text: text}}},
			},
			GenerationConfig: geminiGeneration{
				Temperature:     cfg.Temperature,
				MaxOutputTokens: cfg.MaxTokens,
			},
		}

		body, err := post(ctx, cfg, ProviderGemini, endpoint, nil, reqBody)
		if err != nil {
			return "", err
		}

		var result geminiResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return "", &upstream.ContentError{Service: ProviderGemini, Op: "generateContent", Err: err}
		}
		if len(result.Candidates) == 0 {
			return "", &upstream.ContentError{Service: ProviderGemini, Op: "generateContent", Err: errors.New("no candidates")}
		}

		var sb strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		return sb.String(), nil
	}
}

func messages(p Prompt) []chatMessage {
	var out []chatMessage
	if p.System != "" {
		out = append(out, chatMessage{Role: "system", Content: p.System})
	}
	return append(out, chatMessage{Role: "user", Content: p.User})
}
