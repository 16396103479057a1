package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/tarjim/internal"
)

// Progress is one observation of a Stream. Lines[:Done] are translated;
// entries at Done and beyond are still pending and hold "".
type Progress struct {
	Lines []string
	Done  int
	Total int
}

// Fraction is the share of lines translated so far, in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

// Stream translates a TextUnit one line per Next call. It is not
// restartable; call Pipeline.Stream again for a fresh pass.
//
//	s := p.Stream(ctx, lines, dir)
//	for s.Next() {
//		render(s.Progress())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	p     *Pipeline
	ctx   context.Context
	lines []string
	dir   internal.Direction
	out   []string
	done  int
	err   error
}

// Stream starts a pass over lines. The direction is resolved once, here.
func (p *Pipeline) Stream(ctx context.Context, lines []string, dir internal.Direction) *Stream {
	s := &Stream{
		p:     p,
		ctx:   ctx,
		lines: lines,
		out:   make([]string, len(lines)),
	}
	s.dir, s.err = p.ResolveDirection(strings.Join(lines, "\n"), dir)
	return s
}

// Next translates the next line. It returns false once every line is done or
// after a failure, which Err then reports.
func (s *Stream) Next() bool {
	if s.err != nil || s.done >= len(s.lines) {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}

	out, err := s.p.translateLine(s.ctx, s.lines[s.done], s.dir)
	if err != nil {
		s.err = fmt.Errorf("line %d: %w", s.done+1, err)
		return false
	}
	s.out[s.done] = out
	s.done++
	return true
}

// Progress returns a snapshot; callers may keep or modify it.
func (s *Stream) Progress() Progress {
	lines := make([]string, len(s.out))
	copy(lines, s.out)
	return Progress{Lines: lines, Done: s.done, Total: len(s.lines)}
}

func (s *Stream) Direction() internal.Direction {
	return s.dir
}

func (s *Stream) Err() error {
	return s.err
}
