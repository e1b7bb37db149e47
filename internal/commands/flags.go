package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/client"
	"github.com/colonyops/proofread/internal/core/config"
	"github.com/colonyops/proofread/internal/core/editor"
	"github.com/colonyops/proofread/internal/proofread"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "proofread", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "proofread")
}

// Backend lists and runs modules, in process or through a server.
type Backend interface {
	editor.Backend
	Modules(ctx context.Context) ([]analyzer.Info, error)
}

// selectBackend returns a client for serverURL, or the local registry when
// serverURL is empty.
func selectBackend(app *proofread.App, serverURL string) Backend {
	if serverURL != "" {
		return client.New(serverURL, nil)
	}
	return app.Registry
}
