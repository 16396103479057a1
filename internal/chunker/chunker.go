// Package chunker splits long texts into sentence-bounded units sized for a
// single translation engine call. A sentence is never split across chunks
// and chunk order is the order of the source text.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxLength is the chunk size used when the caller passes a
	// non-positive maxLength.
	DefaultMaxLength = 512

	// Joiner glues sentences inside a chunk and chunks back together.
	Joiner = ". "
)

// sentenceEndRe matches runs of sentence-terminal punctuation ("...", "?!").
var sentenceEndRe = regexp.MustCompile(`[.!?]+`)

// Sentences splits text on sentence-terminal punctuation, discarding the
// delimiters, collapsing inner whitespace and dropping empty sentences.
func Sentences(text string) []string {
	parts := sentenceEndRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.Join(strings.Fields(p), " ")
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Chunk groups the sentences of text greedily into chunks of at most
// maxLength unicode code points, separator included. A sentence longer than
// maxLength forms a chunk of its own and is never truncated.
//
// When text yields no usable sentence (empty, whitespace or punctuation
// only) the original text is returned as the single chunk, so the result
// is never empty.
func Chunk(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var (
		chunks     []string
		current    strings.Builder
		currentLen int
	)
	joinerLen := utf8.RuneCountInString(Joiner)

	for _, sentence := range Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		if currentLen > 0 && currentLen+joinerLen+n > maxLength {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteString(Joiner)
			currentLen += joinerLen
		}
		current.WriteString(sentence)
		currentLen += n
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// Join reassembles chunks in order using the sentence joiner.
func Join(chunks []string) string {
	return strings.Join(chunks, Joiner)
}

// Normalize returns the form of text that Join(Chunk(text, n)) reproduces
// for any n: sentences whitespace-collapsed and re-joined with Joiner.
// Text without usable sentences is returned unchanged.
func Normalize(text string) string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	return strings.Join(sentences, Joiner)
}
