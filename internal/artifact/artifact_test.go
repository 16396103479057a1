package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report.pdf", "report_translated.txt"},
		{"notes.v2.md", "notes.v2_translated.txt"},
		{"../../etc/passwd", "passwd_translated.txt"},
		{"README", "README_translated.txt"},
		{"", "document_translated.txt"},
		{".pdf", "document_translated.txt"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.input); got != tt.want {
			t.Errorf("OutputName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFileWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "translated_files")
	w := NewFileWriter(dir)

	path, err := w.Write(context.Background(), "report.pdf", []string{"مرحبا", "", "وداعا"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "report_translated.txt") {
		t.Errorf("unexpected path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "مرحبا\n\nوداعا" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFileWriter_WriteFailsOnBadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileWriter(file).Write(context.Background(), "a.txt", []string{"x"}); err == nil {
		t.Error("expected error when output dir is a file")
	}
}
