package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/staticindex"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".mbr.yml"

// DefaultExcludes are glob patterns excluded from the corpus by default.
var DefaultExcludes = []string{
	"node_modules/**",
	".git/**",
	"vendor/**",
	"**/*.draft.md",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	static := staticindex.DefaultOptions()
	return &Config{
		RootDir:        ".",
		OutputDir:      "public",
		SiteName:       "Docs",
		IndexFile:      docindex.DefaultIndexFile,
		Include:        []string{"**/*.md"},
		Exclude:        DefaultExcludes,
		OtherFiles:     []string{"**/*.txt"},
		Sort:           ordering.DefaultConfig(),
		MaxConcurrency: 4,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 5200,
		},
		Search: SearchConfig{
			Mode:               string(search.ModeLive),
			DebounceMS:         int(search.DefaultDebounce / time.Millisecond),
			MinQueryLen:        search.DefaultMinQueryLen,
			Limit:              search.DefaultLimit,
			StaticArtifact:     "",
			StaticDebounceMS:   0,
			StaticLengthWeight: static.LengthWeight,
			StaticTitleBoost:   static.TitleBoost,
		},
	}
}

// LoaderConfig returns the docindex loader settings for the corpus.
func (c *Config) LoaderConfig() docindex.LoaderConfig {
	return docindex.LoaderConfig{
		RootDir:   c.RootDir,
		Include:   c.Include,
		Exclude:   c.Exclude,
		IndexFile: c.IndexFile,
		Sort:      c.Sort,
	}
}

// StaticOptions returns the static index relevance tuning.
func (c *Config) StaticOptions() staticindex.Options {
	return staticindex.Options{
		LengthWeight: c.Search.StaticLengthWeight,
		TitleBoost:   c.Search.StaticTitleBoost,
	}
}

// StaticDebounce is the static index's own query debounce window.
func (c *Config) StaticDebounce() time.Duration {
	return time.Duration(c.Search.StaticDebounceMS) * time.Millisecond
}

// DispatcherOptions returns the interactive search settings.
func (c *Config) DispatcherOptions() search.Options {
	return search.Options{
		Debounce:    time.Duration(c.Search.DebounceMS) * time.Millisecond,
		MinQueryLen: c.Search.MinQueryLen,
	}
}

// ArtifactPath is the static artifact location: the configured path, else
// the one publish writes under OutputDir.
func (c *Config) ArtifactPath() string {
	if c.Search.StaticArtifact != "" {
		return c.Search.StaticArtifact
	}
	return filepath.Join(c.OutputDir, filepath.FromSlash(strings.TrimPrefix(staticindex.ArtifactPath, "/")))
}
