// Package transition flags consecutive sentences that lack a transition. An
// LLM judges every adjacent sentence pair within a paragraph.
package transition

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/analyzer/textsplit"
	"github.com/colonyops/proofread/internal/llm"
)

// Name is the module identifier.
const Name = "transition"

const instruction = "Extract the information based on user's instruction"

//go:embed prompt.txt
var defaultPrompt string

// Options configures the module.
type Options struct {
	Workers    int    // concurrent LLM calls, defaults to 4
	PromptFile string // replaces the built-in prompt template
	Logger     zerolog.Logger
}

// Module asks an LLM whether each sentence pair needs a transition.
type Module struct {
	client llm.Client
	opts   Options
	prompt string
}

var _ analyzer.Module = (*Module)(nil)

// New creates the module. It is unavailable when client is nil.
func New(client llm.Client, opts Options) *Module {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Module{client: client, opts: opts, prompt: defaultPrompt}
}

func (m *Module) Name() string { return Name }

func (m *Module) Description() string {
	return "Identifies missing transition words between consecutive sentences within the same paragraph"
}

func (m *Module) Available() bool { return m.client != nil }

// Init loads the prompt template from Options.PromptFile when set.
func (m *Module) Init(_ context.Context) error {
	if m.opts.PromptFile == "" {
		return nil
	}

	data, err := os.ReadFile(m.opts.PromptFile)
	if err != nil {
		return fmt.Errorf("read transition prompt: %w", err)
	}
	m.prompt = string(data)
	return nil
}

func (m *Module) Close() error { return nil }

type pair struct {
	context string
	first   string
	second  textsplit.Piece
}

// pairs returns the adjacent sentence pairs of every paragraph, each with the
// sentence preceding the pair as context.
func pairs(text string) []pair {
	var out []pair
	for _, p := range textsplit.Paragraphs(text) {
		sentences := textsplit.Sentences(p)
		for i := 0; i+1 < len(sentences); i++ {
			var prev string
			if i > 0 {
				prev = sentences[i-1].Text
			}
			out = append(out, pair{context: prev, first: sentences[i].Text, second: sentences[i+1]})
		}
	}
	return out
}

// Analyze judges every sentence pair concurrently. A reply that cannot be
// parsed counts as no finding; a failed LLM call fails the analysis.
func (m *Module) Analyze(ctx context.Context, text string) ([]analyzer.Finding, error) {
	if m.client == nil {
		return nil, llm.ErrDisabled
	}

	ps := pairs(text)
	m.opts.Logger.Info().Ctx(ctx).Int("pairs", len(ps)).Msg("judging sentence pairs")

	found := make([]*analyzer.Finding, len(ps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)

	for i, p := range ps {
		g.Go(func() error {
			reply, err := m.client.Chat(gctx, m.messages(p))
			if err != nil {
				return fmt.Errorf("judge sentence pair: %w", err)
			}

			v, err := parseVerdict(reply)
			if err != nil {
				m.opts.Logger.Warn().Ctx(gctx).Err(err).Msg("unparseable llm reply")
				return nil
			}
			if !v.missing() {
				return nil
			}

			word := textsplit.FirstWord(p.second.Text)
			if word == "" {
				return nil
			}
			f := analyzer.NewFinding(text, p.second.Start, p.second.Start+len([]rune(word)),
				"Lack of transition, Potential candidates: "+v.Candidates)
			found[i] = &f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	findings := make([]analyzer.Finding, 0, len(found))
	for _, f := range found {
		if f != nil {
			findings = append(findings, *f)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Start < findings[j].Start })

	m.opts.Logger.Info().Ctx(ctx).Int("findings", len(findings)).Msg("transition analysis done")
	return findings, nil
}

func (m *Module) messages(p pair) []llm.Message {
	prompt := strings.NewReplacer(
		"{previous_context}", p.context,
		"{sentence1}", p.first,
		"{sentence2}", p.second.Text,
	).Replace(m.prompt)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: instruction},
		{Role: llm.RoleUser, Content: prompt},
	}
}

// verdict is the reply format. Models are loose with types, so transition
// may arrive as a number, string or bool and candidates as a string or list.
type verdict struct {
	Transition int
	Candidates string
}

func (v verdict) missing() bool {
	return v.Transition != 0 && strings.TrimSpace(v.Candidates) != ""
}

func parseVerdict(reply string) (verdict, error) {
	var raw struct {
		Transition json.RawMessage `json:"transition"`
		Candidates json.RawMessage `json:"candidates"`
	}
	if err := llm.DecodeJSON(reply, &raw); err != nil {
		return verdict{}, err
	}

	var (
		v   verdict
		err error
	)
	if v.Transition, err = flexInt(raw.Transition); err != nil {
		return verdict{}, fmt.Errorf("transition: %w", err)
	}
	if v.Candidates, err = flexString(raw.Candidates); err != nil {
		return verdict{}, fmt.Errorf("candidates: %w", err)
	}
	return v, nil
}

func flexInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	return 0, fmt.Errorf("unexpected value %s", raw)
}

func flexString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", "), nil
	}
	return "", fmt.Errorf("unexpected value %s", raw)
}
