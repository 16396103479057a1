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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/tarjim/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP translation API",
	Long: `Serve the translation API:

  GET  /health               liveness check
  POST /translate/text       synchronous line translation (JSON)
  POST /translate/document   synchronous chunked translation (JSON)
  POST /translate/pdf        upload a document, returns a task id (202)
  GET  /status/{id}          job status and result

Document jobs run on a background worker pool backed by jobs.store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanupEngine, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanupEngine()
		p := buildPipeline(cfg, engine, logger)

		st, closeStore, err := openJobStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if cfg.Jobs.UploadDir != "" {
			if err := os.MkdirAll(cfg.Jobs.UploadDir, 0755); err != nil {
				return fmt.Errorf("failed to create upload directory: %w", err)
			}
		}

		manager := buildManager(cfg, st, p, logger)
		if err := manager.Start(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start job workers: %w", err)
		}

		api := server.New(p, manager, logger,
			server.WithUploadDir(cfg.Jobs.UploadDir),
			server.WithMaxUploadBytes(cfg.Server.MaxUploadMB<<20),
		)
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info().
				Str("addr", cfg.Server.Addr).
				Str("store", cfg.Jobs.Store).
				Strs("services", cfg.Engine.Services).
				Msg("HTTP server listening")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		var runErr error
		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Server error")
				runErr = err
			}
		case sig := <-shutdown:
			logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
			if err := srv.Close(); err != nil {
				logger.Error().Err(err).Msg("Forced shutdown failed")
			}
		}
		if err := manager.Stop(ctx); err != nil {
			logger.Warn().Err(err).Msg("Job workers did not drain before the deadline")
		}

		logger.Info().Msg("Server stopped")
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("store", "memory", "Job store: memory, sqlite or redis")
	serveCmd.Flags().Int("workers", 2, "Number of job workers")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("jobs.store", serveCmd.Flags().Lookup("store"))
	_ = v.BindPFlag("jobs.workers", serveCmd.Flags().Lookup("workers"))
}
