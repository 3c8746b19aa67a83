package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/progress"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/site"
)

var publishCmd = &cobra.Command{
	Use:   "publish [dir]",
	Short: "Write the corpus out as a static site",
	Long: `Renders every document with its sidebar tree and previous/next links, and
writes the document index, the static search artifact and non-markdown
assets alongside. The output can be served by any static file host.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringP("output", "o", "", "output directory (default from config)")
	publishCmd.Flags().Int("concurrency", 0, "pages rendered in parallel (default from config)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.OutputDir = out
	}
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		cfg.MaxConcurrency = n
	}

	renderer, err := render.New("")
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	gen := &site.Generator{
		Loader:         cfg.LoaderConfig(),
		OutputDir:      cfg.OutputDir,
		SiteName:       cfg.SiteName,
		OtherFiles:     cfg.OtherFiles,
		MaxConcurrency: cfg.MaxConcurrency,
		Renderer:       renderer,
		Reporter:       progress.NewReporter("Publishing"),
	}

	start := time.Now()
	res, err := gen.Generate(context.Background())
	if err != nil {
		return fmt.Errorf("publishing %s: %w", cfg.RootDir, err)
	}

	fmt.Fprintf(os.Stderr, "Published %d pages, %d searchable documents and %d assets to %s\n",
		res.Pages, res.Searched, res.Assets, cfg.OutputDir)
	if verbose {
		fmt.Fprintf(os.Stderr, "Took %s\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}
