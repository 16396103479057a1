package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/translator"
)

type OrchestratorConfig struct {
	// Timeout bounds each service call. Zero leaves the caller's deadline.
	Timeout time.Duration
}

type OrchestratorResult struct {
	Results   []translator.ServiceResult
	Errors    []error
	Succeeded int
	Failed    int
}

// Best returns the successful result with the highest confidence, or nil.
// Ties go to the service registered first.
func (r *OrchestratorResult) Best() *translator.ServiceResult {
	if len(r.Results) == 0 {
		return nil
	}
	return &r.Results[0]
}

// Orchestrator fans one request out to every service in parallel.
type Orchestrator struct {
	services []translator.TranslationService
	config   OrchestratorConfig
	cfg      translator.ServiceConfig
}

func New(services []translator.TranslationService, config OrchestratorConfig, cfg translator.ServiceConfig) *Orchestrator {
	return &Orchestrator{
		services: services,
		config:   config,
		cfg:      cfg,
	}
}

func (o *Orchestrator) Name() string {
	return "orchestrator"
}

func (o *Orchestrator) Execute(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) *OrchestratorResult {
	result := &OrchestratorResult{
		Results: make([]translator.ServiceResult, 0, len(o.services)),
		Errors:  make([]error, 0),
	}

	type resultChan struct {
		index int
		res   *translator.ServiceResult
		err   error
	}

	resultChanSlice := make(chan resultChan, len(o.services))

	var wg sync.WaitGroup
	for i, svc := range o.services {
		wg.Add(1)
		go func(index int, service translator.TranslationService) {
			defer wg.Done()

			serviceCtx := ctx
			if o.config.Timeout > 0 {
				var cancel context.CancelFunc
				serviceCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
				defer cancel()
			}

			res, err := service.Translate(serviceCtx, cfg, req)
			if res == nil && err == nil {
				err = fmt.Errorf("%s: no result", service.Name())
			}
			resultChanSlice <- resultChan{index: index, res: res, err: err}
		}(i, svc)
	}

	go func() {
		wg.Wait()
		close(resultChanSlice)
	}()

	type success struct {
		index int
		res   translator.ServiceResult
	}
	var successes []success
	for rc := range resultChanSlice {
		switch {
		case rc.err != nil:
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", o.services[rc.index].Name(), rc.err))
			result.Failed++
		case rc.res.Error != "":
			result.Errors = append(result.Errors, fmt.Errorf("%s: %s", rc.res.ServiceName, rc.res.Error))
			result.Failed++
		default:
			successes = append(successes, success{index: rc.index, res: *rc.res})
			result.Succeeded++
		}
	}

	// Equal confidence goes to the service registered first.
	sort.Slice(successes, func(i, j int) bool {
		a, b := successes[i], successes[j]
		if a.res.Confidence != b.res.Confidence {
			return a.res.Confidence > b.res.Confidence
		}
		return a.index < b.index
	})
	for _, s := range successes {
		result.Results = append(result.Results, s.res)
	}

	return result
}

// Translate implements translator.Engine.
func (o *Orchestrator) Translate(ctx context.Context, text string, dir internal.Direction) (string, error) {
	req, err := translator.NewRequest(text, dir)
	if err != nil {
		return "", err
	}
	if len(o.services) == 0 {
		return "", fmt.Errorf("%w: no translation services configured", internal.ErrEngine)
	}

	result := o.Execute(ctx, o.cfg, req)
	if best := result.Best(); best != nil {
		return best.TranslatedText, nil
	}
	return "", fmt.Errorf("%w: all %d services failed: %w", internal.ErrEngine, result.Failed, errors.Join(result.Errors...))
}
