package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/proofread/internal/core/highlight"
	"github.com/colonyops/proofread/internal/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "/tmp/data")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/data", cfg.DataDir)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, llm.ServiceNone, cfg.LLM.Service)
	assert.True(t, cfg.Modules.Pronouns.Enabled)
	assert.True(t, cfg.Modules.Transition.Enabled)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, highlight.DefaultPalette(), cfg.Palette.Highlight())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "/tmp/data")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
palette:
  default: "#000000"
  modules:
    transition: "#123456"
modules:
  isolated_pronouns:
    enabled: false
    words: [this, that]
  transition:
    workers: 8
llm:
  service: ollama
  ollama:
    model: mistral
cache:
  ttl: 2h
`)

	cfg, err := Load(path, "/tmp/data")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Modules.Pronouns.Enabled)
	assert.Equal(t, []string{"this", "that"}, cfg.Modules.Pronouns.Words)
	assert.Equal(t, 8, cfg.Modules.Transition.Workers)
	assert.Equal(t, llm.ServiceOllama, cfg.LLM.Service)
	assert.Equal(t, "mistral", cfg.LLM.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Ollama.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)

	palette := cfg.Palette.Highlight()
	assert.Equal(t, "#000000", palette.Default)
	assert.Equal(t, "#123456", palette.Modules["transition"])
	assert.Equal(t, highlight.DefaultPalette().Overlap, palette.Overlap)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "server: [", wantErr: "parse config file"},
		{name: "bad port", content: "server:\n  port: 70000", wantErr: "server.port"},
		{name: "bad service", content: "llm:\n  service: claude", wantErr: "llm.service"},
		{name: "negative ttl", content: "cache:\n  ttl: -1s", wantErr: "cache.ttl"},
		{name: "negative workers", content: "analysis:\n  workers: -2", wantErr: "analysis.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), "/tmp/data")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EmptyDataDir(t *testing.T) {
	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory")
}

func TestLLMConfig_Client(t *testing.T) {
	t.Setenv("PROOFREAD_TEST_OPENAI", "sk-test")
	t.Setenv("PROOFREAD_TEST_GEMINI", "g-test")

	cfg := DefaultConfig().LLM
	cfg.Service = llm.ServiceOpenAI
	cfg.OpenAI.APIKeyEnv = "PROOFREAD_TEST_OPENAI"
	cfg.Gemini.APIKeyEnv = "PROOFREAD_TEST_GEMINI"

	got := cfg.Client()
	assert.Equal(t, llm.ServiceOpenAI, got.Service)
	assert.Equal(t, "sk-test", got.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", got.OpenAI.Model)
	assert.Equal(t, "g-test", got.Gemini.APIKey)
	assert.Equal(t, cfg.Timeout, got.Timeout)
}

func TestWatch(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		ports []int
	)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, "/tmp/data", zerolog.Nop(), func(c *Config) {
			mu.Lock()
			ports = append(ports, c.Server.Port)
			mu.Unlock()
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	// invalid content is skipped
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 99999\n"), 0o600))
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ports) > 0 && ports[len(ports)-1] == 9001
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, ports, 99999)
}
