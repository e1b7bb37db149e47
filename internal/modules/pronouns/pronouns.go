// Package pronouns flags isolated demonstrative and personal pronouns that
// carry no specific meaning by themselves.
package pronouns

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/colonyops/proofread/internal/analyzer"
)

// Name is the module identifier.
const Name = "isolated_pronouns"

const explanation = "isolated pronoun"

// DefaultWords is the word list used when none is configured.
var DefaultWords = []string{"this", "that", "these", "those", "it", "they", "them"}

// Module matches whole words case-insensitively.
type Module struct {
	words   []string
	pattern *regexp.Regexp
}

var _ analyzer.Module = (*Module)(nil)

// New creates the module for the given words, falling back to DefaultWords.
func New(words []string) *Module {
	if len(words) == 0 {
		words = DefaultWords
	}
	return &Module{words: words}
}

func (m *Module) Name() string { return Name }

func (m *Module) Description() string {
	return "Identifies isolated pronouns that don't carry specific meaning by themselves"
}

func (m *Module) Available() bool { return true }

// Init compiles the word pattern.
func (m *Module) Init(_ context.Context) error {
	quoted := make([]string, 0, len(m.words))
	for _, w := range m.words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	if len(quoted) == 0 {
		return fmt.Errorf("no pronouns configured")
	}

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return fmt.Errorf("compile pronoun pattern: %w", err)
	}
	m.pattern = re
	return nil
}

func (m *Module) Close() error { return nil }

// Analyze returns one finding per matched pronoun, ordered by position.
func (m *Module) Analyze(ctx context.Context, text string) ([]analyzer.Finding, error) {
	if m.pattern == nil {
		if err := m.Init(ctx); err != nil {
			return nil, err
		}
	}

	offsets := analyzer.NewRuneOffsets(text)
	matches := m.pattern.FindAllStringIndex(text, -1)

	findings := make([]analyzer.Finding, 0, len(matches))
	for _, loc := range matches {
		if !wholeWord(text, loc[0], loc[1]) {
			continue
		}
		findings = append(findings, analyzer.NewFinding(text, offsets.At(loc[0]), offsets.At(loc[1]), explanation))
	}
	return findings, nil
}

// wholeWord reports whether text[start:end] is not glued to a neighbouring
// word character. RE2's \b only knows ASCII, so "Itália" would otherwise
// match "It".
func wholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
