package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/proofread/internal/llm"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateDeep performs the structural checks of Validate and then the I/O
// checks: config and data paths, referenced files, palette colors and LLM
// credentials. All field problems are reported together.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validatePalette(),
		c.validateFiles(),
		c.validateLLM(),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func isColor(s string) error {
	if s == "" || hexColor.MatchString(s) {
		return nil
	}
	return fmt.Errorf("%q is not a hex color like #FF5733", s)
}

func isFile(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

func (c *Config) validatePalette() error {
	var errs criterio.FieldErrorsBuilder

	if err := isColor(c.Palette.Default); err != nil {
		errs = errs.Append("palette.default", err)
	}
	if err := isColor(c.Palette.Overlap); err != nil {
		errs = errs.Append("palette.overlap", err)
	}
	for module, color := range c.Palette.Modules {
		if err := isColor(color); err != nil {
			errs = errs.Append(fmt.Sprintf("palette.modules[%q]", module), err)
		}
	}

	return errs.ToError()
}

func (c *Config) validateFiles() error {
	return criterio.ValidateStruct(
		criterio.Run("sample_text", c.SampleText, isFile),
		criterio.Run("modules.transition.prompt_file", c.Modules.Transition.PromptFile, isFile),
	)
}

// validateLLM checks that the selected service has its credentials.
func (c *Config) validateLLM() error {
	if !c.Modules.Transition.Enabled {
		return nil
	}

	switch c.LLM.Service {
	case llm.ServiceOpenAI:
		return criterio.Run("llm.openai.api_key_env", c.LLM.OpenAI.APIKeyEnv, envSet)
	case llm.ServiceGemini:
		return criterio.Run("llm.gemini.api_key_env", c.LLM.Gemini.APIKeyEnv, envSet)
	case llm.ServiceOllama:
		if c.LLM.Ollama.Model == "" {
			return criterio.NewFieldErrors("llm.ollama.model", fmt.Errorf("model is required"))
		}
	}
	return nil
}

func envSet(name string) error {
	if name == "" {
		return fmt.Errorf("environment variable name is required")
	}
	if os.Getenv(name) == "" {
		return fmt.Errorf("environment variable %s is not set", name)
	}
	return nil
}
