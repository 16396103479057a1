package translator

import (
	"context"
	"fmt"

	"github.com/valpere/tarjim/internal"
)

// ServiceEngine exposes a single TranslationService as an Engine.
type ServiceEngine struct {
	svc TranslationService
	cfg ServiceConfig
}

func NewServiceEngine(svc TranslationService, cfg ServiceConfig) *ServiceEngine {
	return &ServiceEngine{svc: svc, cfg: cfg}
}

func (e *ServiceEngine) Name() string {
	return e.svc.Name()
}

func (e *ServiceEngine) Translate(ctx context.Context, text string, dir internal.Direction) (string, error) {
	req, err := NewRequest(text, dir)
	if err != nil {
		return "", err
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	res, err := e.svc.Translate(ctx, e.cfg, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", internal.ErrEngine, e.svc.Name(), err)
	}
	if res == nil {
		return "", fmt.Errorf("%w: %s: no result", internal.ErrEngine, e.svc.Name())
	}
	if res.Error != "" {
		return "", fmt.Errorf("%w: %s: %s", internal.ErrEngine, e.svc.Name(), res.Error)
	}
	return res.TranslatedText, nil
}

// NewRequest builds a service request for an explicit direction.
func NewRequest(text string, dir internal.Direction) (TranslateRequest, error) {
	source, target, err := dir.Languages()
	if err != nil {
		return TranslateRequest{}, err
	}
	return TranslateRequest{
		Text:       text,
		SourceLang: string(source),
		TargetLang: string(target),
	}, nil
}
