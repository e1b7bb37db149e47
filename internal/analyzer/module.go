// Package analyzer defines the contract for text analysis modules and the
// registry that runs them.
package analyzer

import (
	"context"
	"errors"
	"unicode/utf8"
)

// Sentinel errors for analysis requests.
var (
	ErrUnknownModule = errors.New("module not found")
	ErrNoModules     = errors.New("no modules specified")
	ErrEmptyText     = errors.New("no text provided")
)

// Module scans text and reports flagged regions.
type Module interface {
	// Name returns the identifier used to select the module (e.g. "transition").
	Name() string

	// Description returns a one line summary shown in module listings.
	Description() string

	// Available reports whether the module's dependencies are met
	// (e.g. an LLM client is configured). Called once at registration.
	Available() bool

	// Init prepares the module. Called once after registration.
	Init(ctx context.Context) error

	// Close releases module resources.
	Close() error

	// Analyze returns the findings for text. Offsets are in characters.
	Analyze(ctx context.Context, text string) ([]Finding, error)
}

// Info describes a registered module.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Finding is one flagged region on the wire. Position and TextSpan describe
// the region the way older clients expect; Start and End carry the same
// region as a half-open character range.
type Finding struct {
	Position    int    `json:"position"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	TextSpan    string `json:"text_span,omitempty"`
	Explanation string `json:"explanation"`
}

// Result is the output of one module for one request.
type Result struct {
	ModuleName        string    `json:"module_name"`
	ModuleDescription string    `json:"module_description,omitempty"`
	Results           []Finding `json:"results"`
}

// NewFinding builds a finding for the character range [start, end) of text.
func NewFinding(text string, start, end int, explanation string) Finding {
	runes := []rune(text)
	span := ""
	if start >= 0 && start <= end && end <= len(runes) {
		span = string(runes[start:end])
	}
	return Finding{
		Position:    start,
		Start:       start,
		End:         end,
		TextSpan:    span,
		Explanation: explanation,
	}
}

// Region returns the finding's character position and length. Findings that
// only carry position and text_span (older modules) derive their length from
// the span's character count.
func (f Finding) Region() (position, length int) {
	switch {
	case f.End > f.Start:
		return f.Start, f.End - f.Start
	case f.TextSpan != "":
		return f.Position, utf8.RuneCountInString(f.TextSpan)
	case f.Start == 0 && f.End == 0:
		return f.Position, 0
	default:
		return f.Start, 0
	}
}

// RuneOffsets converts byte offsets within a string into character offsets.
type RuneOffsets struct {
	text string
}

// NewRuneOffsets returns a converter for text.
func NewRuneOffsets(text string) RuneOffsets {
	return RuneOffsets{text: text}
}

// At returns the character offset of byte offset b.
func (r RuneOffsets) At(b int) int {
	if b <= 0 {
		return 0
	}
	if b > len(r.text) {
		b = len(r.text)
	}
	return utf8.RuneCountInString(r.text[:b])
}
