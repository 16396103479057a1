package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/artifact"
	"github.com/valpere/tarjim/internal/extractor"
	"github.com/valpere/tarjim/internal/pipeline"
)

// LineTranslator is the line-mode half of the translation pipeline.
type LineTranslator interface {
	TranslateLines(ctx context.Context, lines []string, dir internal.Direction) ([]string, internal.Direction, error)
}

var _ LineTranslator = (*pipeline.Pipeline)(nil)

// Submission is a document handed to the manager. The manager owns
// InputPath from the moment Submit is called.
type Submission struct {
	InputPath string
	InputName string
	Direction internal.Direction
}

type Manager struct {
	store      Store
	extractor  extractor.Extractor
	translator LineTranslator
	writer     artifact.Writer
	logger     zerolog.Logger
	release    func(path string) error
	now        func() time.Time

	workers   int
	queueSize int
	limiter   *rate.Limiter

	queue   chan string
	mu      sync.RWMutex
	running bool
	closed  bool
	wg      sync.WaitGroup
	runCtx  context.Context
	cancel  context.CancelFunc
}

type Option func(*Manager)

func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// WithAdmissionRate limits how many submissions per second are accepted.
// A non-positive rate disables the limiter.
func WithAdmissionRate(perSecond float64, burst int) Option {
	return func(m *Manager) {
		if perSecond <= 0 {
			m.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithReleaser replaces the default input cleanup, which removes the file.
func WithReleaser(release func(path string) error) Option {
	return func(m *Manager) { m.release = release }
}

func NewManager(store Store, ext extractor.Extractor, tr LineTranslator, writer artifact.Writer, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		extractor:  ext,
		translator: tr,
		writer:     writer,
		logger:     zerolog.Nop(),
		release:    removeFile,
		now:        time.Now,
		workers:    2,
		queueSize:  64,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queue = make(chan string, m.queueSize)
	m.runCtx, m.cancel = context.WithCancel(context.Background())
	return m
}

func removeFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Submit records a pending job and queues it without waiting for any work.
// When the submission is rejected nothing is kept: the record is removed,
// the input is released and the error is returned.
func (m *Manager) Submit(ctx context.Context, sub Submission) (string, error) {
	if sub.InputPath == "" {
		return "", fmt.Errorf("%w: no input document", internal.ErrInvalidInput)
	}
	if !sub.Direction.IsAuto() {
		if _, _, err := sub.Direction.Languages(); err != nil {
			m.releaseInput(m.logger, sub.InputPath)
			return "", err
		}
	}
	if m.limiter != nil && !m.limiter.Allow() {
		m.releaseInput(m.logger, sub.InputPath)
		return "", fmt.Errorf("%w: submission rate exceeded", internal.ErrQueueFull)
	}

	now := m.now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		InputPath: sub.InputPath,
		InputName: sub.InputName,
		Direction: sub.Direction,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if job.Direction == "" {
		job.Direction = internal.DirectionAuto
	}

	log := m.logger.With().Str("job_id", job.ID).Logger()

	if err := m.store.Create(ctx, job); err != nil {
		m.releaseInput(log, sub.InputPath)
		return "", fmt.Errorf("create job: %w", err)
	}

	if err := m.enqueue(job.ID); err != nil {
		if delErr := m.store.Delete(ctx, job.ID); delErr != nil {
			log.Error().Err(delErr).Msg("failed to remove rejected job")
		}
		m.releaseInput(log, sub.InputPath)
		log.Warn().Err(err).Msg("job rejected")
		return "", err
	}

	log.Info().
		Str("status", string(job.Status)).
		Str("direction", string(job.Direction)).
		Str("input", job.InputName).
		Msg("job submitted")
	return job.ID, nil
}

func (m *Manager) enqueue(id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("%w: job manager stopped", internal.ErrQueueFull)
	}
	select {
	case m.queue <- id:
		return nil
	default:
		return fmt.Errorf("%w: %d jobs waiting", internal.ErrQueueFull, cap(m.queue))
	}
}

// Status returns a snapshot of the job. Unknown ids yield internal.ErrNotFound.
func (m *Manager) Status(ctx context.Context, id string) (*Job, error) {
	return m.store.Get(ctx, id)
}

// Start launches the worker pool. It returns immediately.
func (m *Manager) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("job manager stopped")
	}
	if m.running {
		return nil
	}
	m.running = true

	m.logger.Info().
		Int("workers", m.workers).
		Int("queue_size", cap(m.queue)).
		Msg("job manager starting")

	for range m.workers {
		m.wg.Add(1)
		go m.worker()
	}
	return nil
}

// Stop refuses new submissions, lets workers drain the queue and waits for
// them. When ctx expires first the running jobs are cancelled, which fails
// them, and Stop still waits for their terminal transition.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.logger.Info().Msg("job manager stopping")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info().Msg("job manager stopped gracefully")
		m.cancel()
		return nil
	case <-ctx.Done():
		m.logger.Warn().Msg("job manager shutdown timed out, cancelling running jobs")
		m.cancel()
		<-done
		return ctx.Err()
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()

	for id := range m.queue {
		if err := m.Run(m.runCtx, id); err != nil {
			m.logger.Error().Err(err).Str("job_id", id).Msg("job bookkeeping failed")
		}
	}
}

// Run executes one pending job to a terminal state. Failures of the job
// itself are recorded on the job; the returned error only reports that the
// job could not be loaded or its final state could not be stored. The input
// is released exactly once, when the job reaches its terminal state.
//
// Bookkeeping ignores cancellation of ctx: a job dequeued after the run
// context was cancelled is failed without starting, not left pending.
func (m *Manager) Run(ctx context.Context, id string) error {
	book := context.WithoutCancel(ctx)

	job, err := m.store.Get(book, id)
	if err != nil {
		return err
	}
	if !CanTransition(job.Status, StatusProcessing) {
		return fmt.Errorf("job %s: invalid transition %s -> %s", id, job.Status, StatusProcessing)
	}

	log := m.logger.With().Str("job_id", id).Logger()

	if err := ctx.Err(); err != nil {
		return m.finish(ctx, log, job, nil, fmt.Errorf("not started: %w", err))
	}

	job.Status = StatusProcessing
	job.UpdatedAt = m.now().UTC()
	if err := m.store.Update(book, job); err != nil {
		return m.finish(ctx, log, job, nil, fmt.Errorf("mark processing: %w", err))
	}
	log.Info().Str("status", string(job.Status)).Msg("job transition")

	result, runErr := m.execute(ctx, log, job)
	return m.finish(ctx, log, job, result, runErr)
}

func (m *Manager) execute(ctx context.Context, log zerolog.Logger, job *Job) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("job panicked")
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	lines := m.extractor.Lines(ctx, job.InputPath)
	if len(lines) == 0 {
		return nil, internal.ErrExtraction
	}

	translated, dir, err := m.translator.TranslateLines(ctx, lines, job.Direction)
	if err != nil {
		return nil, err
	}

	output, err := m.writer.Write(ctx, job.InputName, translated)
	if err != nil {
		return nil, err
	}

	return &Result{
		Direction:           dir,
		OriginalLines:       lines,
		TranslatedLines:     translated,
		WordCountOriginal:   pipeline.CountWords(lines),
		WordCountTranslated: pipeline.CountWords(translated),
		OutputFile:          output,
	}, nil
}

// finish applies the terminal transition and releases the input even when
// storing the final state fails.
func (m *Manager) finish(ctx context.Context, log zerolog.Logger, job *Job, result *Result, runErr error) error {
	defer m.releaseInput(log, job.InputPath)

	to := StatusCompleted
	if runErr != nil {
		to = StatusFailed
	}
	if !CanTransition(job.Status, to) {
		return fmt.Errorf("job %s: invalid transition %s -> %s", job.ID, job.Status, to)
	}

	job.Status = to
	job.UpdatedAt = m.now().UTC()
	if runErr != nil {
		job.Result = nil
		job.Error = runErr.Error()
	} else {
		job.Result = result
		job.Error = ""
	}

	// A cancelled run context must not keep the final state from being stored.
	if err := m.store.Update(context.WithoutCancel(ctx), job); err != nil {
		log.Error().Err(err).Str("status", string(to)).Msg("failed to store terminal job state")
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}

	event := log.Info()
	if runErr != nil {
		event = log.Warn().Str("error", job.Error)
	}
	event.Str("status", string(to)).Msg("job transition")
	return nil
}

func (m *Manager) releaseInput(log zerolog.Logger, path string) {
	if err := m.release(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to release job input")
	}
}
