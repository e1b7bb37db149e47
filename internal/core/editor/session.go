// Package editor holds the state of one proofreading session: the current
// text, the rendered overlay, the in-flight analysis run and the current
// selection.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/core/highlight"
	"github.com/colonyops/proofread/internal/markup"
)

// Sentinel errors returned by Run.
var (
	ErrNoModules = errors.New("no modules selected")
	ErrBusy      = errors.New("analysis already running")
	ErrStale     = errors.New("text changed while analysis was running")
)

// Backend runs analysis modules over text.
type Backend interface {
	Process(ctx context.Context, text string, modules []string) (map[string]analyzer.Result, error)
}

// Session is safe for concurrent use. The backend call in Run is made
// without holding the lock.
type Session struct {
	mu         sync.Mutex
	log        zerolog.Logger
	palette    highlight.Palette
	text       string
	generation uint64
	busy       bool
	cancel     context.CancelFunc
	overlay    highlight.Overlay
	selection  []highlight.Member
}

// NewSession returns an empty session that colors highlights with palette.
func NewSession(palette highlight.Palette, log zerolog.Logger) *Session {
	return &Session{
		palette: palette,
		log:     log,
	}
}

// Text returns the current content.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText replaces the content. Any running analysis is cancelled and its
// result will be discarded; the overlay and selection are cleared.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.overlay = highlight.Overlay{}
	s.selection = nil
}

// Paste replaces the content with the plain text of rich (HTML) input.
func (s *Session) Paste(rich string) error {
	text, err := markup.PlainText(rich)
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	s.SetText(text)
	return nil
}

// SetPalette changes the colors used by subsequent runs.
func (s *Session) SetPalette(p highlight.Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette = p
}

// Busy reports whether an analysis run is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Run analyzes the current text with the given modules and replaces the
// overlay with the result. On error the previous overlay is kept.
func (s *Session) Run(ctx context.Context, backend Backend, modules []string) (highlight.Overlay, error) {
	if len(modules) == 0 {
		return highlight.Overlay{}, ErrNoModules
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return highlight.Overlay{}, ErrBusy
	}
	s.busy = true
	gen := s.generation
	text := s.text
	palette := s.palette
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	results, err := backend.Process(runCtx, text, modules)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	s.busy = false
	if s.generation != gen {
		return highlight.Overlay{}, ErrStale
	}
	s.cancel = nil
	if err != nil {
		return highlight.Overlay{}, fmt.Errorf("run analysis: %w", err)
	}

	spans, dropped := Spans(text, results, modules)
	for _, derr := range dropped {
		s.log.Warn().Err(derr).Msg("dropping invalid finding")
	}

	s.overlay = highlight.Render(text, highlight.Resolve(spans, palette))
	s.selection = nil

	for _, sk := range s.overlay.Skipped {
		s.log.Debug().
			Str("region", sk.Group.Key().String()).
			Str("reason", string(sk.Reason)).
			Msg("highlight not rendered")
	}

	return s.overlay, nil
}

// Overlay returns the overlay of the last successful run.
func (s *Session) Overlay() highlight.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// Select stores the members of the highlight under the character offset as
// the current selection. It reports false, and clears the selection, when no
// highlight covers the offset.
func (s *Session) Select(offset int) ([]highlight.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.overlay.Select(offset)
	s.selection = members
	return members, ok
}

// Selection returns the current selection.
func (s *Session) Selection() []highlight.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Spans converts module results into spans, walking modules in the requested
// order so group members come out in that order. Findings that do not fit the
// text are returned as errors and left out.
func Spans(text string, results map[string]analyzer.Result, modules []string) ([]highlight.Span, []error) {
	var (
		spans   []highlight.Span
		dropped []error
		seen    = make(map[string]bool, len(modules))
	)

	for _, name := range modules {
		if seen[name] {
			continue
		}
		seen[name] = true

		res, ok := results[name]
		if !ok {
			continue
		}

		for _, f := range res.Results {
			pos, length := f.Region()
			span, err := highlight.NewSpan(text, pos, length, name, f.Explanation)
			if err != nil {
				dropped = append(dropped, fmt.Errorf("module %s: %w", name, err))
				continue
			}
			spans = append(spans, span)
		}
	}

	return spans, dropped
}
