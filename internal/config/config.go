package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nested keys: MBR_SERVER__PORT sets server.port.
const EnvPrefix = "MBR_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (MBR_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: MBR_SITE_NAME -> site_name,
	// MBR_SEARCH__LIMIT -> search.limit.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("root_dir is required")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if strings.ContainsAny(c.IndexFile, `/\`) {
		return fmt.Errorf("invalid index_file %q: must be a file name", c.IndexFile)
	}

	if err := c.Sort.Validate(); err != nil {
		return fmt.Errorf("invalid sort: %w", err)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	switch search.Mode(c.Search.Mode) {
	case "", search.ModeLive, search.ModeStatic:
	default:
		return fmt.Errorf("invalid search.mode %q: must be one of live, static", c.Search.Mode)
	}

	if c.Search.DebounceMS < 0 || c.Search.StaticDebounceMS < 0 {
		return fmt.Errorf("search debounce must be non-negative")
	}

	if c.Search.MinQueryLen < 0 {
		return fmt.Errorf("search.min_query_len must be non-negative")
	}

	if c.Search.Limit < 0 {
		return fmt.Errorf("search.limit must be non-negative")
	}

	if c.Search.StaticLengthWeight < 0 || c.Search.StaticTitleBoost < 0 {
		return fmt.Errorf("static search weights must be non-negative")
	}

	return nil
}
