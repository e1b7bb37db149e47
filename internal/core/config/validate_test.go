package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/proofread/internal/llm"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		names = append(names, fe.Field)
	}
	return names
}

func TestValidateDeep_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_Fields(t *testing.T) {
	dir := t.TempDir()
	notDir := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o600))

	tests := []struct {
		name   string
		mutate func(c *Config)
		path   string
		field  string
	}{
		{
			name:   "data dir is a file",
			mutate: func(c *Config) { c.DataDir = notDir },
			field:  "data_dir",
		},
		{
			name:   "config path is a directory",
			mutate: func(c *Config) {},
			path:   dir,
			field:  "config_file",
		},
		{
			name:   "bad default color",
			mutate: func(c *Config) { c.Palette.Default = "red" },
			field:  "palette.default",
		},
		{
			name:   "bad module color",
			mutate: func(c *Config) { c.Palette.Modules = map[string]string{"transition": "#12345"} },
			field:  `palette.modules["transition"]`,
		},
		{
			name:   "missing sample text",
			mutate: func(c *Config) { c.SampleText = filepath.Join(dir, "missing.txt") },
			field:  "sample_text",
		},
		{
			name:   "missing prompt file",
			mutate: func(c *Config) { c.Modules.Transition.PromptFile = filepath.Join(dir, "missing.txt") },
			field:  "modules.transition.prompt_file",
		},
		{
			name: "openai key unset",
			mutate: func(c *Config) {
				c.LLM.Service = llm.ServiceOpenAI
				c.LLM.OpenAI.APIKeyEnv = "PROOFREAD_TEST_UNSET_KEY"
			},
			field: "llm.openai.api_key_env",
		},
		{
			name: "ollama without model",
			mutate: func(c *Config) {
				c.LLM.Service = llm.ServiceOllama
				c.LLM.Ollama.Model = ""
			},
			field: "llm.ollama.model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.ValidateDeep(tt.path)
			require.Error(t, err)
			assert.Contains(t, fieldNames(t, err), tt.field)
		})
	}
}

func TestValidateDeep_CollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Palette.Default = "nope"
	cfg.Palette.Overlap = "#GGGGGG"
	cfg.SampleText = filepath.Join(t.TempDir(), "missing.txt")

	names := fieldNames(t, cfg.ValidateDeep(""))
	assert.ElementsMatch(t, []string{"palette.default", "palette.overlap", "sample_text"}, names)
}

func TestValidateDeep_LLMKeySkippedWhenTransitionDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.LLM.Service = llm.ServiceGemini
	cfg.LLM.Gemini.APIKeyEnv = "PROOFREAD_TEST_UNSET_KEY"
	cfg.Modules.Transition.Enabled = false

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_StructuralFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Server.Port = 0

	err := cfg.ValidateDeep("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}
