package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/pipeline"
	"github.com/valpere/tarjim/internal/translator"
)

type stubExtractor struct {
	lines []string
	panic bool
}

func (s *stubExtractor) Lines(ctx context.Context, path string) []string {
	if s.panic {
		panic("corrupt document")
	}
	return s.lines
}

type memWriter struct {
	mu      sync.Mutex
	err     error
	written map[string][]string
}

func (w *memWriter) Write(ctx context.Context, inputName string, lines []string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	if w.written == nil {
		w.written = map[string][]string{}
	}
	name := "out/" + inputName + "_translated.txt"
	w.written[name] = lines
	return name, nil
}

type releaseCounter struct {
	mu    sync.Mutex
	count map[string]int
}

func (r *releaseCounter) release(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == nil {
		r.count = map[string]int{}
	}
	r.count[path]++
	return nil
}

func (r *releaseCounter) get(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count[path]
}

func bracketEngine(fail string) translator.Engine {
	return translator.EngineFunc(func(ctx context.Context, text string, dir internal.Direction) (string, error) {
		if fail != "" && text == fail {
			return "", internal.ErrEngine
		}
		return "[" + text + "]", nil
	})
}

type fixture struct {
	store    *MemoryStore
	ext      *stubExtractor
	writer   *memWriter
	releases *releaseCounter
	manager  *Manager
}

func newFixture(t *testing.T, lines []string, fail string, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryStore(),
		ext:      &stubExtractor{lines: lines},
		writer:   &memWriter{},
		releases: &releaseCounter{},
	}
	opts = append([]Option{WithReleaser(f.releases.release)}, opts...)
	f.manager = NewManager(f.store, f.ext, pipeline.New(bracketEngine(fail)), f.writer, opts...)
	return f
}

func (f *fixture) submit(t *testing.T, path string) string {
	t.Helper()
	id, err := f.manager.Submit(context.Background(), Submission{InputPath: path, InputName: "doc", Direction: internal.DirectionEnToAr})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return id
}

func TestSubmit_ReturnsPendingJob(t *testing.T) {
	f := newFixture(t, []string{"Hello"}, "")

	id := f.submit(t, "/tmp/in.txt")

	job, err := f.manager.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("expected pending before any worker runs, got %s", job.Status)
	}
	if job.Result != nil || job.Error != "" {
		t.Errorf("pending job must carry neither result nor error: %+v", job)
	}
	if f.releases.get("/tmp/in.txt") != 0 {
		t.Error("input must not be released before a terminal state")
	}
}

func TestSubmit_DefaultsToAutoDirection(t *testing.T) {
	f := newFixture(t, []string{"Hello"}, "")

	id, err := f.manager.Submit(context.Background(), Submission{InputPath: "in", InputName: "doc"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	job, _ := f.manager.Status(context.Background(), id)
	if job.Direction != internal.DirectionAuto {
		t.Errorf("expected auto direction, got %q", job.Direction)
	}
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		sub     Submission
		want    error
		release bool
	}{
		{"missing input", Submission{}, internal.ErrInvalidInput, false},
		{"bad direction", Submission{InputPath: "in", Direction: "en2fr"}, internal.ErrUnsupportedDirection, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, "")
			_, err := f.manager.Submit(context.Background(), tt.sub)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if f.store.Len() != 0 {
				t.Error("rejected submission must not leave a job")
			}
			if tt.release && f.releases.get(tt.sub.InputPath) != 1 {
				t.Error("rejected input must be released")
			}
		})
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	f := newFixture(t, []string{"Hello"}, "", WithQueueSize(1))

	f.submit(t, "first")
	_, err := f.manager.Submit(context.Background(), Submission{InputPath: "second", InputName: "doc"})
	if !errors.Is(err, internal.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if f.store.Len() != 1 {
		t.Errorf("rejected job must be removed, store has %d", f.store.Len())
	}
	if f.releases.get("second") != 1 {
		t.Error("rejected input must be released")
	}
	if f.releases.get("first") != 0 {
		t.Error("accepted input must stay owned by its job")
	}
}

func TestSubmit_AdmissionRate(t *testing.T) {
	f := newFixture(t, []string{"Hello"}, "", WithAdmissionRate(0.001, 1))

	f.submit(t, "first")
	_, err := f.manager.Submit(context.Background(), Submission{InputPath: "second", InputName: "doc"})
	if !errors.Is(err, internal.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull from limiter, got %v", err)
	}
	if f.store.Len() != 1 || f.releases.get("second") != 1 {
		t.Error("limited submission must leave no trace and release its input")
	}
}

func TestStatus_UnknownID(t *testing.T) {
	f := newFixture(t, nil, "")

	job, err := f.manager.Status(context.Background(), "never-issued")
	if !errors.Is(err, internal.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if job != nil {
		t.Errorf("expected no job, got %+v", job)
	}
}

func TestRun_Completes(t *testing.T) {
	f := newFixture(t, []string{"one two", "", "three"}, "")
	id := f.submit(t, "in")

	if err := f.manager.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	job, _ := f.manager.Status(context.Background(), id)
	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", job.Status, job.Error)
	}
	if job.Error != "" {
		t.Errorf("completed job must not carry an error: %q", job.Error)
	}
	res := job.Result
	if res == nil {
		t.Fatal("expected result")
	}
	if strings.Join(res.TranslatedLines, "|") != "[one two]||[three]" {
		t.Errorf("unexpected translated lines %q", res.TranslatedLines)
	}
	if res.WordCountOriginal != 3 || res.WordCountTranslated != 3 {
		t.Errorf("unexpected word counts %d/%d", res.WordCountOriginal, res.WordCountTranslated)
	}
	if res.OutputFile != "out/doc_translated.txt" {
		t.Errorf("unexpected output %q", res.OutputFile)
	}
	if res.Direction != internal.DirectionEnToAr {
		t.Errorf("unexpected direction %q", res.Direction)
	}
	if f.releases.get("in") != 1 {
		t.Errorf("expected input released once, got %d", f.releases.get("in"))
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		fail      string
		panic     bool
		writerErr error
		wantErr   string
	}{
		{name: "no extractable text", lines: nil, wantErr: "no extractable text"},
		{name: "engine failure", lines: []string{"ok", "bad"}, fail: "bad", wantErr: "translation engine failure"},
		{name: "artifact failure", lines: []string{"ok"}, writerErr: errors.New("disk full"), wantErr: "disk full"},
		{name: "panic", lines: []string{"ok"}, panic: true, wantErr: "panic: corrupt document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.lines, tt.fail)
			f.ext.panic = tt.panic
			f.writer.err = tt.writerErr
			id := f.submit(t, "in")

			if err := f.manager.Run(context.Background(), id); err != nil {
				t.Fatalf("job failures must be recorded, not returned: %v", err)
			}

			job, _ := f.manager.Status(context.Background(), id)
			if job.Status != StatusFailed {
				t.Fatalf("expected failed, got %s", job.Status)
			}
			if !strings.Contains(job.Error, tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, job.Error)
			}
			if job.Result != nil {
				t.Error("failed job must not carry a result")
			}
			if f.releases.get("in") != 1 {
				t.Errorf("expected input released once, got %d", f.releases.get("in"))
			}
		})
	}
}

func TestRun_TerminalIsImmutable(t *testing.T) {
	f := newFixture(t, []string{"Hello"}, "")
	id := f.submit(t, "in")

	if err := f.manager.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := f.manager.Run(context.Background(), id); err == nil {
		t.Error("expected second run of a terminal job to be refused")
	}

	job, _ := f.manager.Status(context.Background(), id)
	if job.Status != StatusCompleted {
		t.Errorf("terminal status must not change, got %s", job.Status)
	}
	if f.releases.get("in") != 1 {
		t.Errorf("input must be released exactly once, got %d", f.releases.get("in"))
	}
}

type failingTerminalStore struct {
	*MemoryStore
}

func (s failingTerminalStore) Update(ctx context.Context, job *Job) error {
	if job.Status.Terminal() {
		return errors.New("database is locked")
	}
	return s.MemoryStore.Update(ctx, job)
}

func TestRun_ReleasesInputWhenStoreFails(t *testing.T) {
	releases := &releaseCounter{}
	store := failingTerminalStore{NewMemoryStore()}
	m := NewManager(store, &stubExtractor{lines: []string{"Hello"}}, pipeline.New(bracketEngine("")), &memWriter{}, WithReleaser(releases.release))

	id, err := m.Submit(context.Background(), Submission{InputPath: "in", InputName: "doc"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := m.Run(context.Background(), id); err == nil {
		t.Error("expected store failure to be reported")
	}
	if releases.get("in") != 1 {
		t.Errorf("input must be released even when the store fails, got %d", releases.get("in"))
	}
}

func TestManager_StartStopDrainsQueue(t *testing.T) {
	f := newFixture(t, []string{"Hello"}, "", WithWorkers(2), WithQueueSize(8))

	var ids []string
	for _, path := range []string{"a", "b", "c", "d"} {
		ids = append(ids, f.submit(t, path))
	}

	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.manager.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	for i, id := range ids {
		job, _ := f.manager.Status(context.Background(), id)
		if job.Status != StatusCompleted {
			t.Errorf("job %d: expected completed after drain, got %s", i, job.Status)
		}
	}
	for _, path := range []string{"a", "b", "c", "d"} {
		if f.releases.get(path) != 1 {
			t.Errorf("%s: expected one release, got %d", path, f.releases.get(path))
		}
	}

	if _, err := f.manager.Submit(context.Background(), Submission{InputPath: "late"}); !errors.Is(err, internal.ErrQueueFull) {
		t.Errorf("expected submissions after Stop to be refused, got %v", err)
	}
	if f.releases.get("late") != 1 {
		t.Error("refused input must be released")
	}
}

func TestManager_StopTimeoutCancelsJobs(t *testing.T) {
	started := make(chan struct{})
	blocking := translator.EngineFunc(func(ctx context.Context, text string, dir internal.Direction) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})

	releases := &releaseCounter{}
	m := NewManager(NewMemoryStore(), &stubExtractor{lines: []string{"Hello"}}, pipeline.New(blocking), &memWriter{}, WithReleaser(releases.release), WithWorkers(1))

	id, err := m.Submit(context.Background(), Submission{InputPath: "in", Direction: internal.DirectionEnToAr})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	m.Start(context.Background())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	job, _ := m.Status(context.Background(), id)
	if job.Status != StatusFailed {
		t.Errorf("expected cancelled job to fail, got %s", job.Status)
	}
	if releases.get("in") != 1 {
		t.Errorf("expected one release, got %d", releases.get("in"))
	}
}

// ctxStore honours cancellation the way the SQL and Redis stores do.
type ctxStore struct {
	*MemoryStore
}

func (s ctxStore) Get(ctx context.Context, id string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MemoryStore.Get(ctx, id)
}

func (s ctxStore) Update(ctx context.Context, job *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Update(ctx, job)
}

func TestRun_CancelledContextFailsPendingJob(t *testing.T) {
	var calls atomic.Int32
	engine := translator.EngineFunc(func(ctx context.Context, text string, dir internal.Direction) (string, error) {
		calls.Add(1)
		return text, nil
	})
	releases := &releaseCounter{}
	m := NewManager(ctxStore{NewMemoryStore()}, &stubExtractor{lines: []string{"Hello"}}, pipeline.New(engine), &memWriter{}, WithReleaser(releases.release))

	id, err := m.Submit(context.Background(), Submission{InputPath: "in", Direction: internal.DirectionEnToAr})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Run(ctx, id); err != nil {
		t.Fatalf("run: %v", err)
	}

	job, _ := m.Status(context.Background(), id)
	if job.Status != StatusFailed {
		t.Errorf("expected failed, got %s", job.Status)
	}
	if !strings.Contains(job.Error, context.Canceled.Error()) {
		t.Errorf("expected cancellation in error, got %q", job.Error)
	}
	if calls.Load() != 0 {
		t.Errorf("engine must not be called for a job that never started, got %d calls", calls.Load())
	}
	if releases.get("in") != 1 {
		t.Errorf("expected one release, got %d", releases.get("in"))
	}
}

func TestManager_StopTimeoutFailsQueuedJobs(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	blocking := translator.EngineFunc(func(ctx context.Context, text string, dir internal.Direction) (string, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "", ctx.Err()
	})

	releases := &releaseCounter{}
	m := NewManager(ctxStore{NewMemoryStore()}, &stubExtractor{lines: []string{"Hello"}}, pipeline.New(blocking), &memWriter{},
		WithReleaser(releases.release), WithWorkers(1))

	var ids []string
	for _, path := range []string{"a", "b", "c"} {
		id, err := m.Submit(context.Background(), Submission{InputPath: path, Direction: internal.DirectionEnToAr})
		if err != nil {
			t.Fatalf("submit %s: %v", path, err)
		}
		ids = append(ids, id)
	}
	m.Start(context.Background())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	for i, id := range ids {
		job, err := m.Status(context.Background(), id)
		if err != nil {
			t.Fatalf("status %d: %v", i, err)
		}
		if job.Status != StatusFailed {
			t.Errorf("job %d: expected failed, got %s", i, job.Status)
		}
	}
	for _, path := range []string{"a", "b", "c"} {
		if releases.get(path) != 1 {
			t.Errorf("%s: expected one release, got %d", path, releases.get(path))
		}
	}
}

func TestStatus_ConsistentWhileRunning(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}

	tests := []struct {
		name string
		fail string
		want Status
	}{
		{"completes", "", StatusCompleted},
		{"fails", "line 15", StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := bracketEngine(tt.fail)
			slow := translator.EngineFunc(func(ctx context.Context, text string, dir internal.Direction) (string, error) {
				time.Sleep(time.Millisecond)
				return inner.Translate(ctx, text, dir)
			})
			m := NewManager(NewMemoryStore(), &stubExtractor{lines: lines}, pipeline.New(slow), &memWriter{},
				WithReleaser(func(string) error { return nil }))

			id, err := m.Submit(context.Background(), Submission{InputPath: "in", InputName: "doc", Direction: internal.DirectionEnToAr})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}

			done := make(chan struct{})
			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						job, err := m.Status(context.Background(), id)
						if err != nil {
							t.Errorf("status: %v", err)
							return
						}
						if (job.Status == StatusCompleted) != (job.Result != nil) {
							t.Errorf("status %s with result %v", job.Status, job.Result != nil)
						}
						if (job.Status == StatusFailed) != (job.Error != "") {
							t.Errorf("status %s with error %q", job.Status, job.Error)
						}
						select {
						case <-done:
							return
						default:
						}
					}
				}()
			}

			if err := m.Run(context.Background(), id); err != nil {
				t.Errorf("run: %v", err)
			}
			close(done)
			wg.Wait()

			job, _ := m.Status(context.Background(), id)
			if job.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, job.Status)
			}
		})
	}
}
