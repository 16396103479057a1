package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/tarjim/internal/config"
	"github.com/valpere/tarjim/internal/jobs"
	"github.com/valpere/tarjim/internal/orchestrator"
	"github.com/valpere/tarjim/internal/translator"
)

func TestBuildServices(t *testing.T) {
	list, err := buildServices(config.EngineConfig{
		Services: []string{"mymemory", " Ollama ", "bogus", "openai"},
	})
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	var names []string
	for _, svc := range list {
		names = append(names, svc.Name())
	}
	if len(names) != 3 {
		t.Fatalf("services = %v, want 3 (unknown names skipped)", names)
	}
	if names[0] != "mymemory" {
		t.Errorf("first service = %q, want mymemory", names[0])
	}
}

func TestBuildServices_NoneValid(t *testing.T) {
	if _, err := buildServices(config.EngineConfig{Services: []string{"bogus"}}); err == nil {
		t.Error("expected error when no service is valid")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Engine: config.EngineConfig{
			Services:        []string{"mymemory"},
			Timeout:         time.Second,
			BreakerFailures: 3,
			BreakerTimeout:  time.Second,
		},
		Chunk: config.ChunkConfig{MaxLength: 512},
		Cache: config.CacheConfig{DB: filepath.Join(t.TempDir(), "nested", "tarjim.db")},
		Jobs: config.JobsConfig{
			Workers:   1,
			QueueSize: 4,
			Store:     "memory",
			OutputDir: t.TempDir(),
		},
	}
}

func TestBuildEngine_SingleService(t *testing.T) {
	c := testConfig(t)
	engine, cleanup, err := buildEngine(c, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	defer cleanup()
	if _, ok := engine.(*translator.ServiceEngine); !ok {
		t.Errorf("engine = %T, want *translator.ServiceEngine", engine)
	}
}

func TestBuildEngine_SeveralServicesUseOrchestrator(t *testing.T) {
	c := testConfig(t)
	c.Engine.Services = []string{"mymemory", "ollama"}
	engine, cleanup, err := buildEngine(c, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	defer cleanup()
	if _, ok := engine.(*orchestrator.Orchestrator); !ok {
		t.Errorf("engine = %T, want *orchestrator.Orchestrator", engine)
	}
}

func TestBuildEngine_CacheCreatesDatabase(t *testing.T) {
	c := testConfig(t)
	c.Engine.Breaker = true
	c.Cache.Enabled = true
	_, cleanup, err := buildEngine(c, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	cleanup()
	if _, err := os.Stat(c.Cache.DB); err != nil {
		t.Errorf("translation memory not created: %v", err)
	}
}

func TestOpenJobStore(t *testing.T) {
	for _, kind := range []string{"memory", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			c := testConfig(t)
			c.Jobs.Store = kind
			st, closeStore, err := openJobStore(context.Background(), c)
			if err != nil {
				t.Fatalf("openJobStore: %v", err)
			}
			defer closeStore()

			ctx := context.Background()
			job := &jobs.Job{ID: "j1", Status: jobs.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
			if err := st.Create(ctx, job); err != nil {
				t.Fatalf("Create: %v", err)
			}
			got, err := st.Get(ctx, "j1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Status != jobs.StatusPending {
				t.Errorf("status = %q, want pending", got.Status)
			}
		})
	}
}

func TestStageInput_CopiesAndKeepsExtension(t *testing.T) {
	src := filepath.Join(t.TempDir(), "report.md")
	if err := os.WriteFile(src, []byte("# Title\n"), 0644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "uploads")

	staged, err := stageInput(src, dir)
	if err != nil {
		t.Fatalf("stageInput: %v", err)
	}
	if filepath.Dir(staged) != dir {
		t.Errorf("staged in %q, want %q", filepath.Dir(staged), dir)
	}
	if filepath.Ext(staged) != ".md" {
		t.Errorf("staged extension = %q, want .md", filepath.Ext(staged))
	}
	data, err := os.ReadFile(staged)
	if err != nil || string(data) != "# Title\n" {
		t.Errorf("staged content = %q, %v", data, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source removed: %v", err)
	}
}

func TestStageInput_MissingFile(t *testing.T) {
	if _, err := stageInput(filepath.Join(t.TempDir(), "missing.txt"), ""); err == nil {
		t.Error("expected error for missing input")
	}
}
