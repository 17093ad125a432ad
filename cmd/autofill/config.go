package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

type projectConfig struct {
	MaxSize int    `toml:"max_size"`
	Stock   string `toml:"stock"`
	Foil    bool   `toml:"foil"`
}

type downloadConfig struct {
	CacheDir    string `toml:"cache_dir"`
	Concurrency int    `toml:"concurrency"`
	MaxDPI      int    `toml:"max_dpi"`
	Kernel      string `toml:"kernel"`
	Bucket      string `toml:"bucket"`

	// Metadata lookups per second across all workers
	MetadataRate float64 `toml:"metadata_rate"`
}

type cardsConfig struct {
	// JSON front-to-back DFC name mapping
	Transforms string `toml:"transforms"`

	// Override for the common cardback, a storage id or local path
	Cardback string `toml:"cardback"`
}

type config struct {
	Project  projectConfig  `toml:"project"`
	Download downloadConfig `toml:"download"`
	Cards    cardsConfig    `toml:"cards"`
	OutDir   string         `toml:"out_dir"`
}

func defaultConfig() config {
	return config{
		Project: projectConfig{
			Stock: "(S30) Standard Smooth",
		},
		Download: downloadConfig{
			CacheDir:     "images",
			MaxDPI:       800,
			MetadataRate: 10,
		},
		OutDir: "out",
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, err
	}

	if bucket := os.Getenv("AUTOFILL_BUCKET"); bucket != "" {
		cfg.Download.Bucket = bucket
	}
	return cfg, nil
}
