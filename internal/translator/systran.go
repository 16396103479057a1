package translator

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const (
	systranHost    = "api-systran-systran-translation-v1.p.rapidapi.com"
	systranBaseURL = "https://" + systranHost
)

var errSystranKey = errors.New("Systran API key required")

// SystranService calls Systran through RapidAPI.
type SystranService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystranService(apiKey string) *SystranService {
	return &SystranService{
		apiKey:  apiKey,
		baseURL: systranBaseURL,
		client:  newHTTPClient(30 * time.Second),
	}
}

func (s *SystranService) Name() string {
	return "systran"
}

type systranRequest struct {
	Text   []string `json:"text"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type systranReply struct {
	Outputs []struct {
		Output string `json:"output"`
	} `json:"outputs"`
}

func (s *SystranService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result, done := timed(s.Name())

	apiKey := pick(s.apiKey, cfg.APIKey)
	if apiKey == "" {
		return done(errSystranKey)
	}

	header := http.Header{}
	header.Set("X-RapidAPI-Key", apiKey)
	header.Set("X-RapidAPI-Host", systranHost)

	var reply systranReply
	err := call(ctx, s.client, http.MethodPost, s.baseURL+"/translation/text/translate", header,
		systranRequest{Text: []string{req.Text}, Source: req.SourceLang, Target: req.TargetLang, Format: "text"},
		&reply)
	if err != nil {
		return done(err)
	}
	if len(reply.Outputs) == 0 || reply.Outputs[0].Output == "" {
		return done(errors.New("empty translation response"))
	}

	result.TranslatedText = reply.Outputs[0].Output
	result.Confidence = 1.0
	return done(nil)
}

func (s *SystranService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return errSystranKey
	}
	return nil
}

func (s *SystranService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), supported...), nil
}
