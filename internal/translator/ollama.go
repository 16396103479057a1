package translator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/tarjim/internal/postprocess"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "aya:8b"
)

// OllamaTranslator prompts a local Ollama model. Output is cleaned of
// reasoning blocks and echoed labels.
type OllamaTranslator struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaTranslator(baseURL, model string) *OllamaTranslator {
	return &OllamaTranslator{
		baseURL: pick(baseURL, defaultOllamaURL),
		model:   pick(model, defaultOllamaModel),
		client:  newHTTPClient(120 * time.Second),
	}
}

func (s *OllamaTranslator) Name() string {
	return "ollama"
}

type ollamaGenerate struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

func (s *OllamaTranslator) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result, done := timed(s.Name())
	model := pick(cfg.Model, s.model)

	var reply struct {
		Response string `json:"response"`
	}
	err := call(ctx, s.client, http.MethodPost, s.baseURL+"/api/generate", nil, ollamaGenerate{
		Model:  model,
		System: systemPrompt(req.SourceLang, req.TargetLang),
		Prompt: req.Text,
	}, &reply)
	if err != nil {
		return done(err)
	}

	result.TranslatedText = postprocess.Clean(reply.Response)
	result.Confidence = 0.7
	result.Metadata = map[string]string{"model": model}
	return done(nil)
}

// IsAvailable pings the model list endpoint.
func (s *OllamaTranslator) IsAvailable(ctx context.Context) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := call(ctx, s.client, http.MethodGet, s.baseURL+"/api/tags", nil, nil, &tags); err != nil {
		return fmt.Errorf("Ollama not available: %w", err)
	}
	return nil
}

func (s *OllamaTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), supported...), nil
}
