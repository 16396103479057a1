// Package artifact persists finished translations.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const Suffix = "_translated.txt"

type Writer interface {
	Write(ctx context.Context, inputName string, lines []string) (string, error)
}

// FileWriter writes <stem>_translated.txt into Dir, one line per entry.
type FileWriter struct {
	Dir string
}

func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{Dir: dir}
}

// OutputName derives the artifact name from the uploaded file name.
func OutputName(inputName string) string {
	base := filepath.Base(filepath.Clean("/" + inputName))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "document"
	}
	return stem + Suffix
}

func (w *FileWriter) Write(ctx context.Context, inputName string, lines []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.Dir, OutputName(inputName))
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}
