package translator

import (
	"context"
	"errors"
	"fmt"
	"os"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService uses Cloud Translation v2. Credentials come from
// ServiceConfig or the application default chain.
type GoogleService struct{}

func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

func (s *GoogleService) Name() string {
	return "google"
}

func clientOptions(cfg ServiceConfig) []option.ClientOption {
	switch {
	case cfg.Credentials != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.Credentials)}
	case cfg.APIKey != "":
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	default:
		return nil
	}
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result, done := timed(s.Name())

	source, err := language.Parse(req.SourceLang)
	if err != nil {
		return done(fmt.Errorf("invalid source language: %w", err))
	}
	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return done(fmt.Errorf("invalid target language: %w", err))
	}

	client, err := translate.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return done(fmt.Errorf("failed to create client: %w", err))
	}
	defer client.Close()

	out, err := client.Translate(ctx, []string{req.Text}, target, &translate.Options{
		Source: source,
		Format: translate.Text,
		Model:  cfg.Model,
	})
	if err != nil {
		return done(fmt.Errorf("translation failed: %w", err))
	}
	if len(out) == 0 {
		return done(errors.New("no translation returned"))
	}

	result.TranslatedText = out[0].Text
	result.Confidence = 1.0
	return done(nil)
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		return errors.New("GOOGLE_APPLICATION_CREDENTIALS not set")
	}
	return nil
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), supported...), nil
}
