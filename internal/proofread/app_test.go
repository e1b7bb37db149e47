package proofread

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/core/config"
	"github.com/colonyops/proofread/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := New(context.Background(), &cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })
	return app
}

func names(infos []analyzer.Info) []string {
	out := make([]string, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.Name)
	}
	return out
}

func TestNew_DefaultModules(t *testing.T) {
	app := newTestApp(t, nil)

	assert.Nil(t, app.LLM)
	assert.Equal(t, []string{"isolated_pronouns"}, names(app.Registry.List()))
}

func TestNew_WithLLM(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.LLM.Service = llm.ServiceOllama
	})

	require.NotNil(t, app.LLM)
	_, cached := app.LLM.(*llm.Cached)
	assert.True(t, cached)
	assert.Equal(t, []string{"isolated_pronouns", "transition"}, names(app.Registry.List()))
}

func TestNew_ModulesDisabled(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.LLM.Service = llm.ServiceOllama
		c.Cache.Enabled = false
		c.Modules.Pronouns.Enabled = false
		c.Modules.Transition.Enabled = false
	})

	_, cached := app.LLM.(*llm.Cached)
	assert.False(t, cached)
	assert.Empty(t, app.Registry.List())
}

func TestNew_MissingAPIKey(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.LLM.Service = llm.ServiceOpenAI
		c.LLM.OpenAI.APIKeyEnv = "PROOFREAD_TEST_UNSET_KEY"
	})

	assert.Nil(t, app.LLM)
	assert.Equal(t, []string{"isolated_pronouns"}, names(app.Registry.List()))
}

func TestProcess(t *testing.T) {
	app := newTestApp(t, nil)

	results, err := app.Registry.Process(context.Background(), "They left it there.", []string{"isolated_pronouns"})
	require.NoError(t, err)
	require.Contains(t, results, "isolated_pronouns")
	assert.Len(t, results["isolated_pronouns"].Results, 2)
}

func TestSampleText(t *testing.T) {
	app := newTestApp(t, nil)

	text, err := app.SampleText()
	require.NoError(t, err)
	assert.Contains(t, text, "Proofreading")

	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom sample"), 0o600))
	app.Config.SampleText = path

	text, err = app.SampleText()
	require.NoError(t, err)
	assert.Equal(t, "custom sample", text)

	app.Config.SampleText = filepath.Join(t.TempDir(), "missing.txt")
	_, err = app.SampleText()
	assert.Error(t, err)
}

func TestPalette(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Palette.Default = "#111111"
	})
	assert.Equal(t, "#111111", app.Palette().Default)

	p := app.Palette()
	p.Overlap = "#222222"
	app.SetPalette(p)
	assert.Equal(t, "#222222", app.Palette().Overlap)
}

func TestStartClose(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Cache.SweepInterval = 1
	})
	app.Start(context.Background())
}
