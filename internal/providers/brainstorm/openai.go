package brainstorm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Brainstormer
	OnFallback func(reason string, err error)
	OnWarning  func(reason, detail string)
}

// OpenAIBrainstormer asks a chat-completions model for an idea and falls back
// to another Brainstormer on any failure.
type OpenAIBrainstormer struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	fallback   Brainstormer
	onFallback func(reason string, err error)
}

const openAIDefaultTimeout = 30 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelCanonical = map[string]string{
	"gpt-3.5-turbo": "gpt-3.5-turbo",
	"gpt-4o-mini":   "gpt-4o-mini",
	"gpt-4o":        "gpt-4o",
}

var openAIModelAliases = map[string]string{
	"gpt-3.5":      "gpt-3.5-turbo",
	"gpt3.5":       "gpt-3.5-turbo",
	"gpt-35-turbo": "gpt-3.5-turbo",
	"gpt4o-mini":   "gpt-4o-mini",
	"gpt4omini":    "gpt-4o-mini",
	"gpt4o":        "gpt-4o",
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIBrainstormer(opts OpenAIOptions) (*OpenAIBrainstormer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	model, reason := normalizeOpenAIModel(modelInput)
	if reason != "" && opts.OnWarning != nil {
		opts.OnWarning("model_"+reason, fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultOpenAIModel), model))
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewStaticBrainstormer()
	}
	return &OpenAIBrainstormer{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		client:     client,
		fallback:   fallback,
		onFallback: opts.OnFallback,
	}, nil
}

func (o *OpenAIBrainstormer) Brainstorm(ctx context.Context, req Request) (*Idea, error) {
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.9,
		Messages: []openAIMessage{
			{Role: "system", Content: "You are a creative development partner for a film studio. Answer in markdown."},
			{Role: "user", Content: buildBrainstormPrompt(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return o.useFallback(ctx, req, "encode_request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return o.useFallback(ctx, req, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.useFallback(ctx, req, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return o.useFallback(ctx, req, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return o.useFallback(ctx, req, "decode_response", err)
	}
	if len(out.Choices) == 0 {
		return o.useFallback(ctx, req, "empty_choices", errors.New("no choices"))
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return o.useFallback(ctx, req, "empty_response", errors.New("empty response"))
	}
	idea := finish(text, openAIProviderName)
	if idea.Genre == "" {
		idea.Genre = strings.ToLower(strings.TrimSpace(req.Genre))
	}
	return idea, nil
}

func (o *OpenAIBrainstormer) useFallback(ctx context.Context, req Request, reason string, cause error) (*Idea, error) {
	if o.onFallback != nil {
		o.onFallback(reason, cause)
	}
	idea, err := o.fallback.Brainstorm(ctx, req)
	if idea != nil {
		if idea.Provider == "" {
			idea.Provider = staticProviderName
		}
		idea.FallbackReason = reason
	}
	return idea, err
}

func buildBrainstormPrompt(req Request) string {
	sb := &strings.Builder{}
	sb.WriteString("Brainstorm one original film idea. Start with a line 'Title: <title>' and a line 'Genre: <genre>', ")
	sb.WriteString("then give a logline, three main characters and five story beats.")
	if seed := strings.TrimSpace(req.Seed); seed != "" {
		fmt.Fprintf(sb, " Build on this seed: %q.", seed)
	}
	if genre := strings.TrimSpace(req.Genre); genre != "" {
		fmt.Fprintf(sb, " The genre must be %s.", genre)
	}
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		fmt.Fprintf(sb, " Write in locale '%s'.", locale)
	}
	return sb.String()
}

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}

var _ Brainstormer = (*OpenAIBrainstormer)(nil)
