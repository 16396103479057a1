package translator

import (
	"context"
	"time"

	"github.com/valpere/tarjim/internal"
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Confidence     float64           `json:"confidence"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

// TranslationService is a concrete backend speaking one provider's API.
type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// Engine translates one unit of text in an explicit direction. It is the
// only contract the pipeline relies on. Implementations return an error
// wrapping internal.ErrUnsupportedDirection for directions they cannot
// serve and internal.ErrEngine for failed calls.
type Engine interface {
	Translate(ctx context.Context, text string, dir internal.Direction) (string, error)
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx context.Context, text string, dir internal.Direction) (string, error)

func (f EngineFunc) Translate(ctx context.Context, text string, dir internal.Direction) (string, error) {
	return f(ctx, text, dir)
}
