package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"streamline/internal/spec"
)

const (
	SupportedSchema        = "v1"
	DefaultChannelCapacity = 1000
)

// LoadPipelineSpec parses a pipeline YAML, validates schema_version, and
// returns the parsed spec and an absolute path to the source config.
// Unknown keys are rejected.
func LoadPipelineSpec(path string) (spec.File, string, error) {
	var cfg spec.File
	f, err := os.Open(path)
	if err != nil {
		return cfg, "", err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, "", fmt.Errorf("pipeline %s: %w", path, err)
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", fmt.Errorf("pipeline schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if cfg.ChannelCapacity < 0 {
		return cfg, "", fmt.Errorf("pipeline channel_capacity must not be negative, got %d", cfg.ChannelCapacity)
	}
	if cfg.ChannelCapacity == 0 {
		cfg.ChannelCapacity = DefaultChannelCapacity
	}
	if cfg.Source.Config == "" {
		return cfg, "", errors.New("pipeline: source.config is required")
	}
	for _, name := range cfg.Sinks {
		if _, ok := cfg.SinkConfigs[name]; !ok {
			return cfg, "", fmt.Errorf("pipeline: no sink_configs block for sink %q", name)
		}
	}

	confPath := cfg.Source.Config
	if !filepath.IsAbs(confPath) {
		confPath = filepath.Join(filepath.Dir(path), confPath)
	}
	abs, err := filepath.Abs(confPath)
	if err != nil {
		return cfg, "", err
	}
	return cfg, abs, nil
}
