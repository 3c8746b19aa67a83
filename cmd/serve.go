package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/livesearch"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/server"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Browse a markdown folder through the live server",
	Long: `Starts the live-mode server: pages are rendered on request with the sidebar
tree and previous/next links, and search runs against a full-text index that
is rebuilt whenever the document index refreshes. With --watch, file changes
trigger the refresh and open pages reload over a websocket.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "interface to bind (default from config)")
	serveCmd.Flags().Bool("watch", false, "reload the index when files change")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow cross-origin requests from any origin")
	serveCmd.Flags().String("db", "", "path of the search database (default in memory)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if w, _ := cmd.Flags().GetBool("watch"); w {
		cfg.Watch = true
	}
	if all, _ := cmd.Flags().GetBool("allow-all-origins"); all {
		cfg.Server.AllowAllOrigins = true
	}
	dbPath, _ := cmd.Flags().GetString("db")

	// Open the full-text store.
	database, err := openSearchDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	renderer, err := render.New("")
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	index, err := loadIndex(cfg)
	if err != nil {
		// Serve anyway: pages report the failure and a watch reload can fix it.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	srv := server.New(server.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		RootDir:    cfg.RootDir,
		SiteName:   cfg.SiteName,
		OtherFiles: cfg.OtherFiles,
		AllowAll:   cfg.Server.AllowAllOrigins,
	}, index, livesearch.NewEngine(database), renderer)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Watch {
		w, err := watch.New(cfg.RootDir, watch.DefaultDebounce, watch.Refresher(index, cfg.LoaderConfig()))
		if err != nil {
			return fmt.Errorf("watching %s: %w", cfg.RootDir, err)
		}
		defer w.Close()
		go w.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "mbr %s serving %s\n", Version, cfg.RootDir)
	fmt.Fprintf(os.Stderr, "  Browse: http://%s/\n", srv.Addr())
	fmt.Fprintf(os.Stderr, "  Search: http://%s%s?q=\n", srv.Addr(), search.EndpointPath)
	if cfg.Watch {
		fmt.Fprintf(os.Stderr, "  Watching for changes\n")
	}

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
