package config

import "github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"

// Config is the top-level mbr configuration, corresponding to .mbr.yml.
type Config struct {
	RootDir        string          `yaml:"root_dir" koanf:"root_dir"`
	OutputDir      string          `yaml:"output_dir" koanf:"output_dir"`
	SiteName       string          `yaml:"site_name" koanf:"site_name"`
	IndexFile      string          `yaml:"index_file" koanf:"index_file"`
	Include        []string        `yaml:"include" koanf:"include"`
	Exclude        []string        `yaml:"exclude" koanf:"exclude"`
	OtherFiles     []string        `yaml:"other_files" koanf:"other_files"`
	Sort           ordering.Config `yaml:"sort" koanf:"sort"`
	Watch          bool            `yaml:"watch" koanf:"watch"`
	MaxConcurrency int             `yaml:"max_concurrency" koanf:"max_concurrency"`
	Server         ServerConfig    `yaml:"server" koanf:"server"`
	Search         SearchConfig    `yaml:"search" koanf:"search"`
}

// ServerConfig holds live-mode server settings.
type ServerConfig struct {
	Host            string `yaml:"host" koanf:"host"`
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// SearchConfig holds settings for both search backends and the dispatcher.
type SearchConfig struct {
	Mode               string  `yaml:"mode" koanf:"mode"`
	DebounceMS         int     `yaml:"debounce_ms" koanf:"debounce_ms"`
	MinQueryLen        int     `yaml:"min_query_len" koanf:"min_query_len"`
	Limit              int     `yaml:"limit" koanf:"limit"`
	StaticArtifact     string  `yaml:"static_artifact" koanf:"static_artifact"`
	StaticDebounceMS   int     `yaml:"static_debounce_ms" koanf:"static_debounce_ms"`
	StaticLengthWeight float64 `yaml:"static_length_weight" koanf:"static_length_weight"`
	StaticTitleBoost   float64 `yaml:"static_title_boost" koanf:"static_title_boost"`
}
