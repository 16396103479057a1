package translator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/valpere/tarjim/internal/postprocess"
)

const (
	defaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "qwen/qwen2.5-72b-instruct:free"
)

var errOpenRouterKey = errors.New("OpenRouter API key required")

// OpenRouterService sends chat completions to OpenRouter over plain HTTP.
type OpenRouterService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenRouterService(apiKey, baseURL, model string) *OpenRouterService {
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: pick(baseURL, defaultOpenRouterURL),
		model:   pick(model, defaultOpenRouterModel),
		client:  newHTTPClient(120 * time.Second),
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatReply struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *OpenRouterService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result, done := timed(s.Name())

	apiKey := pick(s.apiKey, cfg.APIKey)
	if apiKey == "" {
		return done(errOpenRouterKey)
	}
	model := pick(cfg.Model, s.model)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	header.Set("X-Title", "tarjim")

	var reply chatReply
	err := call(ctx, s.client, http.MethodPost, s.baseURL+"/chat/completions", header, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req.SourceLang, req.TargetLang)},
			{Role: "user", Content: req.Text},
		},
		MaxTokens: 4096,
	}, &reply)
	if err != nil {
		return done(err)
	}
	if len(reply.Choices) == 0 {
		return done(errors.New("empty response from API"))
	}

	result.TranslatedText = postprocess.Clean(reply.Choices[0].Message.Content)
	result.Confidence = 0.7
	result.Metadata = map[string]string{"model": model}
	return done(nil)
}

func (s *OpenRouterService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return errOpenRouterKey
	}
	return nil
}

func (s *OpenRouterService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), supported...), nil
}
