package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/zmre/mbr-markdown-browser-sub000/internal/mcp"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/watch"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [dir]",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing search,
documents, the folder tree, reading order and page outlines as tools for AI
agents.

In live mode the corpus is indexed in memory. In static mode the published
search artifact is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("mode", "", "search mode: live or static (default from config)")
	mcpCmd.Flags().Bool("watch", false, "reload the index when files change")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	mode := search.Mode(cfg.Search.Mode)
	if m, _ := cmd.Flags().GetString("mode"); m != "" {
		mode = search.Mode(m)
	}
	if w, _ := cmd.Flags().GetBool("watch"); w {
		cfg.Watch = true
	}

	index, err := loadIndex(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var backend search.Backend
	switch mode {
	case search.ModeStatic:
		backend = staticBackend(cfg, "")
	default:
		engine, release, err := localEngine(cfg, index)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", cfg.RootDir, err)
		}
		defer release()
		backend = engine
	}

	if cfg.Watch {
		w, err := watch.New(cfg.RootDir, watch.DefaultDebounce, watch.Refresher(index, cfg.LoaderConfig()))
		if err != nil {
			return fmt.Errorf("watching %s: %w", cfg.RootDir, err)
		}
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)
	}

	// Set version from the cmd package variable.
	mcpserver.Version = Version

	st, _ := index.Current()
	fmt.Fprintf(os.Stderr, "mbr MCP server started on stdio (root=%s, mode=%s, documents=%d)\n",
		cfg.RootDir, mode, len(st.Snapshot.Files))

	srv := mcpserver.NewServer(index, backend, mode, cfg.RootDir)
	defer srv.Close()
	return srv.Serve()
}
