package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/config"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/db"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/livesearch"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
)

// loadConfig loads and validates the config, providing a user-friendly error.
// A positional directory argument overrides root_dir.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mbr init` to create a config file", err)
	}
	if len(args) > 0 && args[0] != "" {
		cfg.RootDir = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadIndex reads the corpus into a fresh index. The index is returned even
// when the load fails; it is then marked unavailable until a later refresh.
func loadIndex(cfg *config.Config) (*docindex.Index, error) {
	x := docindex.NewIndex()
	return x, docindex.Refresh(x, cfg.LoaderConfig())
}

// loadSnapshot reads the document index from a running server or published
// site when siteURL is set, else from the local corpus.
func loadSnapshot(ctx context.Context, cfg *config.Config, siteURL string) (docindex.Snapshot, error) {
	if siteURL != "" {
		client := &http.Client{Timeout: 30 * time.Second}
		return docindex.FetchSnapshot(ctx, client, siteURL)
	}
	return docindex.Load(cfg.LoaderConfig())
}

// openSearchDB opens the full-text store at path, or in memory when path is
// empty.
func openSearchDB(path string) (*db.DB, error) {
	if path == "" {
		return db.OpenMemory()
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening search database %s: %w", path, err)
	}
	return database, nil
}

// localEngine indexes the corpus behind x into an in-memory full-text store
// and keeps it current. The returned function releases both.
func localEngine(cfg *config.Config, x *docindex.Index) (*livesearch.Engine, func(), error) {
	database, err := db.OpenMemory()
	if err != nil {
		return nil, nil, err
	}
	engine := livesearch.NewEngine(database)
	// Follow replays the current snapshot before returning, so the first
	// callback reports whether the initial build worked.
	var (
		replayed bool
		firstErr error
	)
	stop := engine.Follow(x, cfg.RootDir, cfg.OtherFiles, func(st docindex.State, docs []render.SearchDocument, err error) {
		if !replayed {
			replayed, firstErr = true, err
		}
		if err != nil {
			log.Printf("search: indexing generation %d: %v", st.Generation, err)
		}
	})
	if firstErr != nil {
		stop()
		database.Close()
		return nil, nil, firstErr
	}
	return engine, func() {
		stop()
		database.Close()
	}, nil
}
