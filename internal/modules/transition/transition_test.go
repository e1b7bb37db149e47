package transition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/proofread/internal/llm"
)

// fakeLLM answers based on the second sentence of the prompt.
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	replies map[string]string // second sentence -> reply
	err     error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	prompt := messages[len(messages)-1].Content
	f.prompts = append(f.prompts, prompt)

	for sentence, reply := range f.replies {
		if strings.Contains(prompt, "Sentence 2:\n"+sentence+"\n") {
			return reply, nil
		}
	}
	return `{"transition": 0, "candidates": ""}`, nil
}

func newModule(t *testing.T, client llm.Client) *Module {
	t.Helper()
	m := New(client, Options{Workers: 2, Logger: zerolog.Nop()})
	require.NoError(t, m.Init(context.Background()))
	return m
}

func TestAnalyze(t *testing.T) {
	text := "The weather was nice. We stayed inside. It rained later.\nNew paragraph here. Ça marche bien."
	fake := &fakeLLM{replies: map[string]string{
		"We stayed inside": "```json\n{\"transition\": 1, \"candidates\": \"However, Still\"}\n```",
		"It rained later":  `{"transition": "0", "candidates": "Then"}`,
		"Ça marche bien":   `{"transition": true, "candidates": ["Indeed", "Also"]}`,
	}}

	findings, err := newModule(t, fake).Analyze(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	runes := []rune(text)

	assert.Equal(t, "We", findings[0].TextSpan)
	assert.Equal(t, "We", string(runes[findings[0].Start:findings[0].End]))
	assert.Equal(t, "Lack of transition, Potential candidates: However, Still", findings[0].Explanation)

	assert.Equal(t, "Ça", findings[1].TextSpan)
	assert.Equal(t, "Ça", string(runes[findings[1].Start:findings[1].End]))
	assert.Equal(t, "Lack of transition, Potential candidates: Indeed, Also", findings[1].Explanation)

	// two pairs in the first paragraph, one in the second
	assert.Len(t, fake.prompts, 3)
}

func TestAnalyze_PromptContext(t *testing.T) {
	fake := &fakeLLM{}
	_, err := newModule(t, fake).Analyze(context.Background(), "One. Two. Three.")
	require.NoError(t, err)
	require.Len(t, fake.prompts, 2)

	var withContext string
	for _, p := range fake.prompts {
		if strings.Contains(p, "Sentence 2:\nThree\n") {
			withContext = p
		}
	}
	assert.Contains(t, withContext, "may be empty):\nOne\n")
	assert.Contains(t, withContext, "Sentence 1:\nTwo\n")
}

func TestAnalyze_UnparseableReply(t *testing.T) {
	fake := &fakeLLM{replies: map[string]string{"Two": "I am not sure."}}
	findings, err := newModule(t, fake).Analyze(context.Background(), "One. Two.")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyze_LLMError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}
	_, err := newModule(t, fake).Analyze(context.Background(), "One. Two.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAnalyze_SingleSentence(t *testing.T) {
	fake := &fakeLLM{}
	findings, err := newModule(t, fake).Analyze(context.Background(), "Just one sentence")
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Empty(t, fake.prompts)
}

func TestAvailable(t *testing.T) {
	assert.False(t, New(nil, Options{}).Available())
	assert.True(t, New(&fakeLLM{}, Options{}).Available())

	_, err := New(nil, Options{}).Analyze(context.Background(), "a. b.")
	assert.ErrorIs(t, err, llm.ErrDisabled)
}

func TestInit_PromptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("[{sentence1}] -> [{sentence2}]"), 0o600))

	fake := &fakeLLM{}
	m := New(fake, Options{PromptFile: path})
	require.NoError(t, m.Init(context.Background()))

	_, err := m.Analyze(context.Background(), "A. B.")
	require.NoError(t, err)
	assert.Equal(t, []string{"[A] -> [B]"}, fake.prompts)

	missing := New(fake, Options{PromptFile: filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, missing.Init(context.Background()))
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    verdict
		missing bool
		wantErr bool
	}{
		{name: "int", reply: `{"transition": 1, "candidates": "However"}`, want: verdict{1, "However"}, missing: true},
		{name: "string number", reply: `{"transition": " 1 ", "candidates": "Thus"}`, want: verdict{1, "Thus"}, missing: true},
		{name: "no candidates", reply: `{"transition": 1, "candidates": ""}`, want: verdict{1, ""}},
		{name: "not missing", reply: `{"transition": 0, "candidates": "So"}`, want: verdict{0, "So"}},
		{name: "missing fields", reply: `{}`, want: verdict{}},
		{name: "bad transition", reply: `{"transition": "yes"}`, wantErr: true},
		{name: "not json", reply: `no`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerdict(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.missing, got.missing())
		})
	}
}
