package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// sortPresets are the orderings offered by the wizard.
var sortPresets = []struct {
	Label string
	Spec  string
}{
	{"title        - alphabetical by title", "title"},
	{"order, title - frontmatter 'order' first, then title", "order:asc:numeric,title"},
	{"newest first - by modification time", "modified:desc:numeric,title"},
	{"filename     - by file name", "filename"},
}

// countMarkdown reports how many markdown files sit under dir, stopping
// early once the answer is clearly "some".
func countMarkdown(dir string) int {
	n := 0
	filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || n >= 1000 {
			return filepath.SkipDir
		}
		if d.IsDir() && p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".md") {
			n++
		}
		return nil
	})
	return n
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .mbr.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to mbr! Let's configure your markdown browser.")
	fmt.Println()

	defaults := DefaultConfig()

	// 1. Corpus root.
	rootPrompt := promptui.Prompt{
		Label:   "Markdown root directory",
		Default: defaults.RootDir,
		Validate: func(s string) error {
			info, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", s)
			}
			return nil
		},
	}
	rootDir, err := rootPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("root dir: %w", err)
	}
	if n := countMarkdown(rootDir); n > 0 {
		fmt.Printf("Found %d markdown file(s).\n\n", n)
	} else {
		fmt.Printf("Note: no markdown files found under %s yet.\n\n", rootDir)
	}

	// 2. Site name.
	namePrompt := promptui.Prompt{
		Label:   "Site name",
		Default: defaults.SiteName,
	}
	siteName, err := namePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site name: %w", err)
	}

	// 3. Sort order.
	labels := make([]string, len(sortPresets))
	for i, p := range sortPresets {
		labels[i] = p.Label
	}
	sortPrompt := promptui.Select{
		Label: "Sidebar and reading order",
		Items: labels,
	}
	sortIdx, _, err := sortPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sort selection: %w", err)
	}
	sortCfg, err := ordering.ParseConfig(sortPresets[sortIdx].Spec)
	if err != nil {
		return nil, fmt.Errorf("sort selection: %w", err)
	}

	// 4. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for the published site",
		Default: defaults.OutputDir,
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	// 5. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Live server port",
		Default: strconv.Itoa(defaults.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p < 1 || p > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 6. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	exclude := append([]string(nil), DefaultExcludes...)
	exclude = append(exclude, splitAndTrim(excludeStr)...)

	// Build the config.
	cfg := defaults
	cfg.RootDir = rootDir
	cfg.SiteName = siteName
	cfg.Sort = sortCfg
	cfg.OutputDir = outputDir
	cfg.Server.Port = port
	cfg.Exclude = exclude

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Save to .mbr.yml.
	if err := cfg.Save(FileName); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", FileName)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
