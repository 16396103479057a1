/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/valpere/tarjim/internal/artifact"
	"github.com/valpere/tarjim/internal/config"
	"github.com/valpere/tarjim/internal/extractor"
	"github.com/valpere/tarjim/internal/jobs"
	"github.com/valpere/tarjim/internal/orchestrator"
	"github.com/valpere/tarjim/internal/pipeline"
	"github.com/valpere/tarjim/internal/redisstore"
	"github.com/valpere/tarjim/internal/store"
	"github.com/valpere/tarjim/internal/translator"
	"github.com/valpere/tarjim/internal/validator"
)

// buildServices constructs the translation services named in engine.services.
func buildServices(ec config.EngineConfig) ([]translator.TranslationService, error) {
	var list []translator.TranslationService

	for _, name := range ec.Services {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "google":
			list = append(list, translator.NewGoogleService())
		case "systran":
			list = append(list, translator.NewSystranService(ec.SystranKey))
		case "mymemory":
			list = append(list, translator.NewMyMemoryService(ec.MyMemoryEmail))
		case "ollama":
			list = append(list, translator.NewOllamaTranslator(ec.OllamaURL, ec.OllamaModel))
		case "openrouter":
			list = append(list, translator.NewOpenRouterService(ec.OpenRouterKey, "", ec.OpenRouterModel))
		case "openai":
			list = append(list, translator.NewOpenAIService(ec.OpenAIKey, ec.OpenAIURL, ec.OpenAIModel))
		default:
			fmt.Fprintf(os.Stderr, "Unknown service: %s, skipping\n", name)
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid services configured")
	}
	return list, nil
}

// buildEngine stacks the configured services into one Engine: a single
// service is used directly, several are raced by the orchestrator. The
// cache wraps the breaker, so hits never reach it.
// The returned cleanup closes the translation memory when one was opened.
func buildEngine(c *config.Config, log zerolog.Logger) (translator.Engine, func(), error) {
	services, err := buildServices(c.Engine)
	if err != nil {
		return nil, nil, err
	}

	svcCfg := translator.ServiceConfig{
		Credentials: c.Engine.Credentials,
		ProjectID:   c.Engine.ProjectID,
		Timeout:     c.Engine.Timeout,
	}

	var engine translator.Engine
	name := services[0].Name()
	if len(services) == 1 {
		engine = translator.NewServiceEngine(services[0], svcCfg)
	} else {
		orch := orchestrator.New(services, orchestrator.OrchestratorConfig{Timeout: c.Engine.Timeout}, svcCfg)
		engine = orch
		name = orch.Name()
	}

	if c.Engine.Breaker {
		engine = translator.WithBreaker(engine, translator.BreakerConfig{
			Name:        name,
			MaxFailures: c.Engine.BreakerFailures,
			OpenTimeout: c.Engine.BreakerTimeout,
		}, log)
	}

	cleanup := func() {}
	if c.Cache.Enabled {
		db, err := openSQLite(c.Cache.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open translation memory: %w", err)
		}
		engine = translator.WithCache(engine, db, log)
		cleanup = func() { db.Close() }
	}

	return engine, cleanup, nil
}

// openSQLite opens the database at path, creating its directory first.
func openSQLite(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return store.New(path)
}

func buildPipeline(c *config.Config, engine translator.Engine, log zerolog.Logger) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithMaxChunkLength(c.Chunk.MaxLength),
		pipeline.WithLogger(log),
	}
	if c.Engine.Validate {
		opts = append(opts, pipeline.WithValidator(validator.New()))
	}
	return pipeline.New(engine, opts...)
}

// openJobStore returns the job store selected by jobs.store and a function
// releasing its connection.
func openJobStore(ctx context.Context, c *config.Config) (jobs.Store, func(), error) {
	switch c.Jobs.Store {
	case "sqlite":
		db, err := openSQLite(c.Cache.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open job database: %w", err)
		}
		return db, func() { db.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		rs := redisstore.New(client, redisstore.WithTTL(c.Jobs.TTL))
		if err := rs.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", c.Redis.Addr, err)
		}
		return rs, func() { client.Close() }, nil
	default:
		return jobs.NewMemoryStore(), func() {}, nil
	}
}

func buildManager(c *config.Config, st jobs.Store, tr jobs.LineTranslator, log zerolog.Logger) *jobs.Manager {
	return jobs.NewManager(st,
		extractor.New(log),
		tr,
		artifact.NewFileWriter(c.Jobs.OutputDir),
		jobs.WithWorkers(c.Jobs.Workers),
		jobs.WithQueueSize(c.Jobs.QueueSize),
		jobs.WithAdmissionRate(c.Jobs.AdmissionRate, c.Jobs.AdmissionBurst),
		jobs.WithLogger(log),
	)
}
