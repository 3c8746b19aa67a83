package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/config"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus, a running server, or a published site",
	Long: `Runs one query and prints the ranked results. In live mode the query goes to
the server given by --url, or to a full-text index built in memory from the
local corpus. In static mode the prebuilt artifact is searched in-process,
read from --url's published site or from the publish output directory.

With --interactive, each line read from stdin replaces the query, as if typed
into a search box. ":mode live" and ":mode static" switch backends. At end of
input the last query is allowed to finish before exiting.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.String("mode", "", "execution mode: live or static (default from config)")
	f.String("url", "", "base URL of a running server or published site")
	f.String("artifact", "", "path of the static search artifact")
	f.String("scope", "all", "match scope: all, metadata or content")
	f.String("folder-scope", "everywhere", "folder scope: everywhere or current")
	f.String("folder", "/", "current folder url path, used with --folder-scope current")
	f.String("filetype", "markdown", "result kinds: markdown or all")
	f.Int("limit", 0, "maximum results (default from config)")
	f.Bool("json", false, "print results as JSON")
	f.BoolP("interactive", "i", false, "read queries from stdin")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	siteURL, _ := flags.GetString("url")
	if a, _ := flags.GetString("artifact"); a != "" {
		cfg.Search.StaticArtifact = a
	}
	mode := search.Mode(cfg.Search.Mode)
	if m, _ := flags.GetString("mode"); m != "" {
		mode = search.Mode(m)
	}
	scope, _ := flags.GetString("scope")
	folderScope, _ := flags.GetString("folder-scope")
	folder, _ := flags.GetString("folder")
	filetype, _ := flags.GetString("filetype")
	limit, _ := flags.GetInt("limit")
	if limit <= 0 {
		limit = cfg.Search.Limit
	}
	asJSON, _ := flags.GetBool("json")
	interactive, _ := flags.GetBool("interactive")

	base := search.QueryContext{
		Scope:       search.Scope(scope),
		FolderScope: search.FolderScope(folderScope),
		Folder:      folder,
		Filetype:    search.Filetype(filetype),
		Mode:        mode,
		Limit:       limit,
	}

	static := staticBackend(cfg, siteURL)
	var live *search.LiveBackend
	if siteURL != "" {
		live = search.NewLiveBackend(siteURL, nil)
	}

	if interactive {
		if mode == search.ModeLive && live == nil {
			return errors.New("interactive live search needs --url of a running `mbr serve`")
		}
		return searchInteractive(cfg, base, live, static, asJSON)
	}

	if len(args) == 0 {
		return errors.New("a query is required unless --interactive is set")
	}
	q := base
	q.RawQuery = strings.Join(args, " ")
	if err := q.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	var resp *search.Response
	if mode == search.ModeLive && live == nil {
		// No server to ask: index the local corpus in memory.
		x, err := loadIndex(cfg)
		if err != nil {
			return err
		}
		engine, release, err := localEngine(cfg, x)
		if err != nil {
			return err
		}
		defer release()
		resp, err = engine.Search(ctx, q.Normalized())
		if err != nil {
			return err
		}
	} else {
		opts := cfg.DispatcherOptions()
		d := search.NewDispatcher(mode, live, static, opts)
		defer d.Close()
		resp, err = d.Search(ctx, q)
		if err != nil {
			return err
		}
	}

	if asJSON {
		return printJSON(resp.Results)
	}
	printResults(resp.Results, resp.TotalMatches)
	if verbose {
		fmt.Fprintf(os.Stderr, "%s search took %s\n", mode, resp.Duration)
	}
	return nil
}

// staticBackend reads the artifact from the published site at siteURL, or
// from disk.
func staticBackend(cfg *config.Config, siteURL string) *search.StaticBackend {
	var src search.ArtifactSource = search.FileSource(cfg.ArtifactPath())
	if siteURL != "" && cfg.Search.StaticArtifact == "" {
		src = search.HTTPSource{URL: search.ArtifactURL(siteURL)}
	}
	return search.NewStaticBackend(src, cfg.StaticOptions(), cfg.StaticDebounce())
}

func searchInteractive(cfg *config.Config, base search.QueryContext, live *search.LiveBackend, static *search.StaticBackend, asJSON bool) error {
	opts := cfg.DispatcherOptions()
	opts.OnChange = func(v search.View) {
		switch v.State {
		case search.Settled:
			if asJSON {
				printJSON(v.Results)
				return
			}
			fmt.Printf("== %q (%s, %s)\n", v.Query, v.Mode, v.Duration)
			printResults(v.Results, v.TotalMatches)
		case search.Failed:
			fmt.Fprintf(os.Stderr, "search %q failed: %v\n", v.Query, v.Err)
		case search.Cancelled:
			fmt.Fprintf(os.Stderr, "search %q cancelled\n", v.Query)
		default:
			if verbose {
				fmt.Fprintf(os.Stderr, "[%s] %q\n", v.State, v.Query)
			}
		}
	}
	d := search.NewDispatcher(base.Mode, live, static, opts)
	defer d.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if m, ok := strings.CutPrefix(line, ":mode "); ok {
			next := search.Mode(strings.TrimSpace(m))
			if next == search.ModeLive && live == nil {
				fmt.Fprintln(os.Stderr, "live mode needs --url")
				continue
			}
			d.SetMode(next)
			continue
		}
		q := base
		q.RawQuery = line
		d.Type(q)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// Piped input ends before the last query settles; let it finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := d.Wait(ctx)
	return err
}

func printResults(results []search.Result, total int) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}
	for i, r := range results {
		kind := ""
		if r.FileKind == search.KindOther {
			kind = " [file]"
		}
		fmt.Printf("%d. %s%s (score: %.2f)\n", i+1, r.Title, kind, r.Score)
		fmt.Printf("   %s\n", r.URLPath)
		if r.SnippetPlain != "" {
			fmt.Printf("   %s\n", r.SnippetPlain)
		}
	}
	if total > len(results) {
		fmt.Printf("(%d of %d matches)\n", len(results), total)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
