package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.OutputDir != "public" {
		t.Errorf("expected default output_dir %q, got %q", "public", cfg.OutputDir)
	}
	if cfg.IndexFile != "index.md" {
		t.Errorf("expected default index_file index.md, got %q", cfg.IndexFile)
	}
	if cfg.Search.DebounceMS != 150 {
		t.Errorf("expected default debounce 150ms, got %d", cfg.Search.DebounceMS)
	}
	if cfg.Search.StaticLengthWeight != 0.5 || cfg.Search.StaticTitleBoost != 2 {
		t.Errorf("unexpected static tuning defaults: %+v", cfg.Search)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("expected default max_concurrency 4, got %d", cfg.MaxConcurrency)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mbr.yml")

	original := DefaultConfig()
	original.RootDir = "notes"
	original.SiteName = "Field Notes"
	original.Include = []string{"**/*.md", "**/*.markdown"}
	original.Sort = ordering.Config{
		{Field: "order", Direction: ordering.Asc, Compare: ordering.Numeric},
		{Field: ordering.FieldTitle, Direction: ordering.Desc, Compare: ordering.Lexicographic},
	}
	original.Server.Port = 8080
	original.Search.StaticTitleBoost = 3.5

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.RootDir != original.RootDir {
		t.Errorf("root_dir: got %q, want %q", loaded.RootDir, original.RootDir)
	}
	if loaded.SiteName != original.SiteName {
		t.Errorf("site_name: got %q, want %q", loaded.SiteName, original.SiteName)
	}
	if loaded.Server.Port != 8080 {
		t.Errorf("server.port: got %d, want 8080", loaded.Server.Port)
	}
	if loaded.Search.StaticTitleBoost != 3.5 {
		t.Errorf("search.static_title_boost: got %f, want 3.5", loaded.Search.StaticTitleBoost)
	}
	if loaded.Sort.String() != original.Sort.String() {
		t.Errorf("sort: got %s, want %s", loaded.Sort, original.Sort)
	}
	if len(loaded.Include) != len(original.Include) {
		t.Errorf("include length: got %d, want %d", len(loaded.Include), len(original.Include))
	}
	for i, v := range loaded.Include {
		if v != original.Include[i] {
			t.Errorf("include[%d]: got %q, want %q", i, v, original.Include[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Server.Port != 5200 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("MBR_SITE_NAME", "From Env")
	t.Setenv("MBR_SERVER__PORT", "9000")
	t.Setenv("MBR_SEARCH__MODE", "static")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SiteName != "From Env" {
		t.Errorf("env override failed: got %q", loaded.SiteName)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("nested env override failed: got %d", loaded.Server.Port)
	}
	if loaded.Search.Mode != "static" {
		t.Errorf("search mode override failed: got %q", loaded.Search.Mode)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	os.WriteFile(path, []byte("server: [unclosed"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty root", func(c *Config) { c.RootDir = "" }, true},
		{"empty output", func(c *Config) { c.OutputDir = "" }, true},
		{"index file with slash", func(c *Config) { c.IndexFile = "docs/index.md" }, true},
		{"bad sort direction", func(c *Config) { c.Sort = ordering.Config{{Field: "title", Direction: "up"}} }, true},
		{"empty sort uses default", func(c *Config) { c.Sort = nil }, false},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown mode", func(c *Config) { c.Search.Mode = "hybrid" }, true},
		{"static mode", func(c *Config) { c.Search.Mode = "static" }, false},
		{"negative debounce", func(c *Config) { c.Search.DebounceMS = -1 }, true},
		{"negative title boost", func(c *Config) { c.Search.StaticTitleBoost = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDerivedSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.StaticDebounceMS = 20

	if got := cfg.StaticDebounce(); got != 20*time.Millisecond {
		t.Errorf("StaticDebounce() = %v", got)
	}
	if got := cfg.DispatcherOptions().Debounce; got != 150*time.Millisecond {
		t.Errorf("dispatcher debounce = %v", got)
	}
	if got := cfg.ArtifactPath(); got != filepath.Join("public", "_mbr", "search-index.json.gz") {
		t.Errorf("ArtifactPath() = %q", got)
	}
	cfg.Search.StaticArtifact = "/srv/site/index.gz"
	if got := cfg.ArtifactPath(); got != "/srv/site/index.gz" {
		t.Errorf("explicit ArtifactPath() = %q", got)
	}
	if lc := cfg.LoaderConfig(); lc.RootDir != "." || lc.IndexFile != "index.md" {
		t.Errorf("LoaderConfig() = %+v", lc)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.md", []string{"**/*.md"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
