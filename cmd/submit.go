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
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/jobs"
)

var (
	submitDirection string
	pollInterval    time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Translate a document through the background job queue",
	Long: `Submit a document as a translation job, wait for it to finish and print
the result. The translated lines are written to <name>_translated.txt under
jobs.output_dir. The input file itself is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := internal.ParseDirection(submitDirection)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, cleanupEngine, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanupEngine()
		p := buildPipeline(cfg, engine, logger)

		st, closeStore, err := openJobStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		manager := buildManager(cfg, st, p, logger)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start job workers: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = manager.Stop(stopCtx)
		}()

		// The manager owns and removes its input, so it gets a copy.
		staged, err := stageInput(args[0], cfg.Jobs.UploadDir)
		if err != nil {
			return err
		}

		id, err := manager.Submit(ctx, jobs.Submission{
			InputPath: staged,
			InputName: filepath.Base(args[0]),
			Direction: dir,
		})
		if err != nil {
			return fmt.Errorf("failed to submit job: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Submitted job %s\n", id)

		job, err := waitForJob(ctx, manager, id)
		if err != nil {
			return err
		}

		if job.Status == jobs.StatusFailed {
			color.New(color.FgRed).Fprintf(os.Stderr, "✗ job %s failed\n", id)
			return fmt.Errorf("job %s failed: %s", id, job.Error)
		}
		r := job.Result
		color.New(color.FgGreen).Printf("✓ job %s completed\n", id)
		fmt.Printf("Direction: %s\n", r.Direction)
		fmt.Printf("Lines: %d\n", len(r.TranslatedLines))
		fmt.Printf("Words: %d original, %d translated\n", r.WordCountOriginal, r.WordCountTranslated)
		fmt.Printf("Output: %s\n", r.OutputFile)
		return nil
	},
}

func stageInput(path, dir string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	defer src.Close()

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	dst, err := os.CreateTemp(dir, "tarjim-submit-*"+filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("failed to stage input: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to stage input: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to stage input: %w", err)
	}
	return dst.Name(), nil
}

func waitForJob(ctx context.Context, manager *jobs.Manager, id string) (*jobs.Job, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " pending"
	s.Writer = os.Stderr
	s.Start()
	defer s.Stop()

	interval := pollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := manager.Status(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read job status: %w", err)
		}
		if job.Status.Terminal() {
			return job, nil
		}
		s.Lock()
		s.Suffix = " " + string(job.Status)
		s.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitDirection, "direction", "d", "auto", "Translation direction: auto, en2ar or ar2en")
	submitCmd.Flags().DurationVar(&pollInterval, "poll", 250*time.Millisecond, "Status polling interval")
}
