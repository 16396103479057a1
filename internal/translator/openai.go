package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/valpere/tarjim/internal/postprocess"
)

var errOpenAIKey = errors.New("OpenAI API key required")

// OpenAIService translates through the OpenAI chat completions API or any
// server compatible with it (baseURL).
type OpenAIService struct {
	apiKey string
	model  string
	client *openai.Client
}

func NewOpenAIService(apiKey, baseURL, model string) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIService{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result, done := timed(s.Name())

	if s.apiKey == "" {
		return done(errOpenAIKey)
	}
	model := pick(cfg.Model, s.model)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.SourceLang, req.TargetLang)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return done(fmt.Errorf("OpenAI API error: %w", err))
	}
	if len(resp.Choices) == 0 {
		return done(errors.New("no translation returned"))
	}

	result.TranslatedText = postprocess.Clean(resp.Choices[0].Message.Content)
	result.Confidence = 0.8
	result.Metadata = map[string]string{
		"model":             model,
		"prompt_tokens":     fmt.Sprintf("%d", resp.Usage.PromptTokens),
		"completion_tokens": fmt.Sprintf("%d", resp.Usage.CompletionTokens),
	}
	return done(nil)
}

func (s *OpenAIService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return errOpenAIKey
	}
	return nil
}

func (s *OpenAIService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), supported...), nil
}
