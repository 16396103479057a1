// Package pipeline drives a translation engine over line-aligned text units
// and over sentence-bounded chunks of whole documents.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/chunker"
	"github.com/valpere/tarjim/internal/detector"
	"github.com/valpere/tarjim/internal/translator"
)

// Validator checks that a translated unit is written in the target language.
type Validator interface {
	IsValid(text string, target internal.Language) (bool, error)
}

type TextResult struct {
	Direction           internal.Direction `json:"direction"`
	OriginalLines       []string           `json:"original_lines"`
	TranslatedLines     []string           `json:"translated_lines"`
	WordCountOriginal   int                `json:"word_count_original"`
	WordCountTranslated int                `json:"word_count_translated"`
}

type DocumentResult struct {
	Direction      internal.Direction `json:"direction"`
	TranslatedText string             `json:"translated_text"`
	Chunks         int                `json:"chunks"`
}

type Pipeline struct {
	engine    translator.Engine
	detector  *detector.Detector
	validator Validator
	maxChunk  int
	logger    zerolog.Logger
}

type Option func(*Pipeline)

func WithDetector(d *detector.Detector) Option {
	return func(p *Pipeline) { p.detector = d }
}

// WithValidator enables the target-language check on every translated unit.
func WithValidator(v Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

func WithMaxChunkLength(n int) Option {
	return func(p *Pipeline) { p.maxChunk = n }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func New(engine translator.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:   engine,
		detector: detector.New(),
		maxChunk: chunker.DefaultMaxLength,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ResolveDirection returns dir when explicit, or the direction detected over
// the whole text when dir is auto.
func (p *Pipeline) ResolveDirection(text string, dir internal.Direction) (internal.Direction, error) {
	if dir.IsAuto() {
		return p.detector.Direction(text), nil
	}
	if _, _, err := dir.Languages(); err != nil {
		return "", err
	}
	return dir, nil
}

// TranslateLines translates every non-blank line and maps blank lines to "".
// Auto direction is detected once for the whole unit, never per line. The
// first engine failure aborts the call.
func (p *Pipeline) TranslateLines(ctx context.Context, lines []string, dir internal.Direction) ([]string, internal.Direction, error) {
	resolved, err := p.ResolveDirection(strings.Join(lines, "\n"), dir)
	if err != nil {
		return nil, "", err
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		translated, err := p.translateLine(ctx, line, resolved)
		if err != nil {
			return nil, resolved, fmt.Errorf("line %d: %w", i+1, err)
		}
		out[i] = translated
	}
	return out, resolved, nil
}

// TranslateDocument chunks text, translates each chunk in order and joins the
// results with a single space. The output is not line-aligned.
func (p *Pipeline) TranslateDocument(ctx context.Context, text string, dir internal.Direction) (*DocumentResult, error) {
	resolved, err := p.ResolveDirection(text, dir)
	if err != nil {
		return nil, err
	}

	chunks := chunker.Chunk(text, p.maxChunk)
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if IsBlank(chunk) {
			continue
		}
		translated, err := p.translateUnit(ctx, chunk, resolved)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
		parts = append(parts, translated)
	}

	p.logger.Debug().
		Str("direction", string(resolved)).
		Int("chunks", len(chunks)).
		Msg("document translated")

	return &DocumentResult{
		Direction:      resolved,
		TranslatedText: strings.Join(parts, " "),
		Chunks:         len(chunks),
	}, nil
}

// Translate is the synchronous line-mode call. Empty or whitespace-only text
// is rejected before any engine call.
func (p *Pipeline) Translate(ctx context.Context, text string, dir internal.Direction) (*TextResult, error) {
	if IsBlank(text) {
		return nil, fmt.Errorf("%w: text is empty", internal.ErrInvalidInput)
	}

	lines := SplitLines(text)
	translated, resolved, err := p.TranslateLines(ctx, lines, dir)
	if err != nil {
		return nil, err
	}

	return &TextResult{
		Direction:           resolved,
		OriginalLines:       lines,
		TranslatedLines:     translated,
		WordCountOriginal:   CountWords(lines),
		WordCountTranslated: CountWords(translated),
	}, nil
}

func (p *Pipeline) translateLine(ctx context.Context, line string, dir internal.Direction) (string, error) {
	if IsBlank(line) {
		return "", nil
	}
	return p.translateUnit(ctx, strings.TrimSpace(line), dir)
}

func (p *Pipeline) translateUnit(ctx context.Context, text string, dir internal.Direction) (string, error) {
	out, err := p.engine.Translate(ctx, text, dir)
	if err != nil {
		return "", err
	}
	p.validate(out, dir)
	return out, nil
}

func (p *Pipeline) validate(text string, dir internal.Direction) {
	if p.validator == nil {
		return
	}
	_, target, err := dir.Languages()
	if err != nil {
		return
	}
	ok, err := p.validator.IsValid(text, target)
	if err != nil {
		p.logger.Warn().Err(err).Msg("translation validation failed")
		return
	}
	if !ok {
		p.logger.Warn().
			Str("target", string(target)).
			Int("length", len([]rune(text))).
			Msg("translation does not look like the target language")
	}
}
