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
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/extractor"
	"github.com/valpere/tarjim/internal/pipeline"
)

var (
	inputFile    string
	inputText    string
	outputFile   string
	directionArg string
	modeArg      string
	showProgress bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate text or a document between English and Arabic",
	Long: `Translate a file (--input) or literal text (--text).

Modes:
  lines      translate line by line, keeping line alignment (default)
  document   split into sentence chunks and translate the whole text

Supported inputs: .pdf, .md/.markdown and UTF-8 plain text.
With --progress the line mode shows a progress bar on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (inputFile == "") == (inputText == "") {
			return fmt.Errorf("exactly one of --input or --text is required")
		}
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		dir, err := internal.ParseDirection(directionArg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		lines, err := readInput(ctx)
		if err != nil {
			return err
		}

		engine, cleanup, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		p := buildPipeline(cfg, engine, logger)

		var (
			translated []string
			resolved   internal.Direction
		)
		switch modeArg {
		case "lines":
			if showProgress {
				translated, resolved, err = translateWithProgress(ctx, p, lines, dir)
			} else {
				translated, resolved, err = p.TranslateLines(ctx, lines, dir)
			}
		case "document":
			var res *pipeline.DocumentResult
			res, err = p.TranslateDocument(ctx, strings.Join(lines, "\n"), dir)
			if err == nil {
				translated, resolved = []string{res.TranslatedText}, res.Direction
				fmt.Fprintf(os.Stderr, "Chunks translated: %d\n", res.Chunks)
			}
		default:
			return fmt.Errorf("unknown mode %q (use lines or document)", modeArg)
		}
		if err != nil {
			return fmt.Errorf("translation failed: %w", err)
		}

		if err := writeOutput(translated); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Direction: %s\n", resolved)
		fmt.Fprintf(os.Stderr, "Words: %d original, %d translated\n",
			pipeline.CountWords(lines), pipeline.CountWords(translated))
		return nil
	},
}

func readInput(ctx context.Context) ([]string, error) {
	if inputText != "" {
		if pipeline.IsBlank(inputText) {
			return nil, fmt.Errorf("%w: text is empty", internal.ErrInvalidInput)
		}
		return pipeline.SplitLines(inputText), nil
	}
	if _, err := os.Stat(inputFile); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	lines := extractor.New(logger).Lines(ctx, inputFile)
	if lines == nil {
		return nil, fmt.Errorf("%s: %w", inputFile, internal.ErrExtraction)
	}
	return lines, nil
}

func translateWithProgress(ctx context.Context, p *pipeline.Pipeline, lines []string, dir internal.Direction) ([]string, internal.Direction, error) {
	bar := progressbar.NewOptions64(
		int64(len(lines)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("Translating"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("lines"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	s := p.Stream(ctx, lines, dir)
	for s.Next() {
		_ = bar.Set64(int64(s.Progress().Done))
	}
	if err := s.Err(); err != nil {
		fmt.Fprint(os.Stderr, "\n")
		return nil, s.Direction(), err
	}
	_ = bar.Finish()
	return s.Progress().Lines, s.Direction(), nil
}

func writeOutput(lines []string) error {
	text := strings.Join(lines, "\n") + "\n"
	if outputFile == "" {
		_, err := fmt.Fprint(os.Stdout, text)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", outputFile)
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input document to translate")
	translateCmd.Flags().StringVar(&inputText, "text", "", "Text to translate instead of a file")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	translateCmd.Flags().StringVarP(&directionArg, "direction", "d", "auto", "Translation direction: auto, en2ar or ar2en")
	translateCmd.Flags().StringVar(&modeArg, "mode", "lines", "Translation mode: lines or document")
	translateCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar (lines mode)")
}
