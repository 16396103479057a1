package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/valpere/tarjim/internal/chunker"
)

func TestChunk_ShortText(t *testing.T) {
	chunks := chunker.Chunk("Hello, world!", 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Hello, world" {
		t.Errorf("expected %q, got %q", "Hello, world", chunks[0])
	}
}

func TestChunk_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "...", "?!"} {
		chunks := chunker.Chunk(text, 100)
		if len(chunks) != 1 {
			t.Fatalf("Chunk(%q): expected exactly 1 chunk, got %d", text, len(chunks))
		}
		if chunks[0] != text {
			t.Errorf("Chunk(%q): expected original text back, got %q", text, chunks[0])
		}
	}
}

func TestChunk_NoTerminalPunctuation(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := chunker.Chunk(text, 10)
	if len(chunks) != 1 || chunks[0] != text {
		t.Errorf("expected the whole sentence as one chunk, got %q", chunks)
	}
}

func TestChunk_TwoSentencesSplit(t *testing.T) {
	chunks := chunker.Chunk("Hi there. How are you?", 10)
	want := []string{"Hi there", "How are you"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestChunk_TwoSentencesFit(t *testing.T) {
	chunks := chunker.Chunk("Hi there. How are you?", 512)
	if len(chunks) != 1 || chunks[0] != "Hi there. How are you" {
		t.Errorf("expected one joined chunk, got %q", chunks)
	}
}

func TestChunk_DefaultMaxLength(t *testing.T) {
	sentence := strings.Repeat("a", 100)
	text := strings.Repeat(sentence+". ", 10)
	chunks := chunker.Chunk(text, 0)
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > chunker.DefaultMaxLength {
			t.Errorf("chunk %d has %d runes, limit %d", i, n, chunker.DefaultMaxLength)
		}
	}
	if len(chunks) < 2 {
		t.Errorf("expected several chunks, got %d", len(chunks))
	}
}

func TestChunk_LongSentenceNotTruncated(t *testing.T) {
	long := strings.Repeat("word ", 40)
	text := "Short one. " + long + ". Tail."
	chunks := chunker.Chunk(text, 30)

	found := false
	for _, c := range chunks {
		if c == strings.TrimSpace(long) {
			found = true
		}
	}
	if !found {
		t.Errorf("long sentence should form its own untruncated chunk: %q", chunks)
	}
}

func TestChunk_BoundsAndReconstruction(t *testing.T) {
	texts := []string{
		"The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs. How vexingly quick daft zebras jump!",
		"First line\nstill first sentence. Second!!! Third??? Fourth...",
		"مرحبا بكم. كيف حالك؟ هذا نص عربي طويل نسبيا. شكرا!",
		"no punctuation at all",
	}

	for _, text := range texts {
		for _, maxLen := range []int{5, 20, 40, 80, 1000} {
			chunks := chunker.Chunk(text, maxLen)
			if len(chunks) == 0 {
				t.Fatalf("Chunk(%q, %d) returned no chunks", text, maxLen)
			}
			for i, c := range chunks {
				if c == "" {
					t.Errorf("Chunk(%q, %d): chunk %d is empty", text, maxLen, i)
				}
				if utf8.RuneCountInString(c) > maxLen && len(chunker.Sentences(c)) > 1 {
					t.Errorf("Chunk(%q, %d): multi-sentence chunk %q exceeds limit", text, maxLen, c)
				}
			}
			if got, want := chunker.Join(chunks), chunker.Normalize(text); got != want {
				t.Errorf("Chunk(%q, %d) rejoined = %q, want %q", text, maxLen, got, want)
			}
		}
	}
}

func TestSentences(t *testing.T) {
	got := chunker.Sentences("  One.  Two\n\tlines!  ?? Three")
	want := []string{"One", "Two lines", "Three"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
