// Package extractor turns an uploaded document into the ordered lines the
// job worker translates. Extraction never fails loudly: any problem is
// logged and reported as no lines.
package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/valpere/tarjim/internal/pipeline"
)

type Extractor interface {
	Lines(ctx context.Context, path string) []string
}

// FileExtractor dispatches on the file extension: PDF, Markdown, or plain
// UTF-8 text for anything else.
type FileExtractor struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *FileExtractor {
	return &FileExtractor{logger: logger}
}

func (e *FileExtractor) Lines(ctx context.Context, path string) []string {
	log := e.logger.With().Str("path", path).Logger()

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = pdfText(ctx, path)
	case ".md", ".markdown":
		var raw []byte
		raw, err = os.ReadFile(path)
		if err == nil {
			text = markdownText(raw)
		}
	default:
		text, err = plainText(path)
	}
	if err != nil {
		log.Warn().Err(err).Msg("text extraction failed")
		return nil
	}

	lines := pipeline.SplitLines(text)
	if pipeline.CountWords(lines) == 0 {
		log.Warn().Msg("document has no extractable text")
		return nil
	}

	log.Debug().Int("lines", len(lines)).Msg("text extracted")
	return lines
}

func plainText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return strings.ToValidUTF8(string(raw), ""), nil
	}
	return string(raw), nil
}
