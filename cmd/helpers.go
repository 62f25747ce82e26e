package cmd

import (
	"os"
	"path/filepath"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/log"
)

// configFlag is the persistent --config override shared by all commands.
var configFlag string

// projectRoot returns the directory buildwatch operates on. Commands run
// from the project root, so this is the working directory.
func projectRoot() string {
	root, err := os.Getwd()
	if err != nil {
		log.Fatal("Failed to determine working directory: ", err)
	}
	return root
}

// configPath resolves the config file location for a project root,
// honoring the --config flag.
func configPath(root string) string {
	if configFlag != "" {
		return configFlag
	}
	return filepath.Join(root, filepath.FromSlash(config.DefaultPath))
}

// mustLoadConfig loads and validates the configuration or exits. Commands
// that need a config treat a missing or invalid file as fatal.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(configPath(root))
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	return cfg
}
