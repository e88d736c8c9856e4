package main

import (
	"fmt"

	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/config"
	"github.com/jonathan/bias-detector/internal/scoring"
)

// settings is the resolved configuration shared by every command
type settings struct {
	cfg     config.Config
	catalog *catalog.Catalog
	scorer  *scoring.Scorer
}

// loadSettings resolves flags over the config file over the environment,
// then loads the catalog. An invalid catalog stops the command.
func loadSettings() (*settings, error) {
	flags := config.Config{
		CatalogPath: rootCatalogFile,
		Verbose:     rootVerbose,
	}

	cfg := flags
	if rootConfigFile != "" {
		fileCfg, err := config.LoadConfig(rootConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
		cfg.Verbose = cfg.Verbose || fileCfg.Verbose
		cfg.InclusiveMode = fileCfg.InclusiveMode
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}

	return &settings{
		cfg:     cfg,
		catalog: cat,
		scorer:  scoring.New(cfg.ScorerOptions()),
	}, nil
}
