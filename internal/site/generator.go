package site

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/progress"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/sequence"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/staticindex"
)

// Asset paths inside a published site.
const (
	StylePath  = "/_mbr/style.css"
	ScriptPath = "/_mbr/script.js"
)

// Generator publishes a corpus as a static site.
type Generator struct {
	Loader         docindex.LoaderConfig
	OutputDir      string
	SiteName       string
	OtherFiles     []string
	MaxConcurrency int
	Renderer       *render.Renderer
	Reporter       progress.Reporter
}

// Result summarizes a publish run.
type Result struct {
	Pages    int
	Searched int
	Assets   int
}

// Generate loads the corpus and writes every page, the document index,
// the static search artifact and non-markdown assets into OutputDir.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	var res Result

	snap, err := docindex.Load(g.Loader)
	if err != nil {
		return res, err
	}
	if len(snap.Files) == 0 {
		return res, fmt.Errorf("no markdown files found in %s", g.Loader.RootDir)
	}
	nav := sequence.Derive(snap, 1)

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return res, err
	}
	if err := g.writeFile(StylePath, []byte(render.CSS)); err != nil {
		return res, err
	}
	if err := g.writeFile(ScriptPath, []byte(render.JS)); err != nil {
		return res, err
	}

	var siteJSON bytes.Buffer
	if err := docindex.Encode(&siteJSON, snap); err != nil {
		return res, fmt.Errorf("encoding site index: %w", err)
	}
	if err := g.writeFile(docindex.SitePath, siteJSON.Bytes()); err != nil {
		return res, err
	}

	reporter := g.Reporter
	if reporter == nil {
		reporter = progress.Discard
	}
	records := nav.Sequence.Records()
	reporter.Start(len(records))

	eg, egCtx := errgroup.WithContext(ctx)
	limit := g.MaxConcurrency
	if limit <= 0 {
		limit = 4
	}
	eg.SetLimit(limit)
	for _, rec := range records {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := g.renderRecord(nav, rec); err != nil {
				return err
			}
			reporter.Step(rec.RawPath)
			return nil
		})
	}
	err = eg.Wait()
	reporter.Finish()
	if err != nil {
		return res, err
	}
	res.Pages = len(records)

	docs, err := render.CollectDocuments(g.Loader.RootDir, snap, g.OtherFiles)
	if err != nil {
		return res, err
	}
	art, err := staticindex.Build(ToStaticDocuments(docs))
	if err != nil {
		return res, fmt.Errorf("building search artifact: %w", err)
	}
	if err := art.WriteFile(g.outPath(staticindex.ArtifactPath)); err != nil {
		return res, err
	}
	res.Searched = len(docs)

	res.Assets, err = g.copyAssets()
	return res, err
}

// ToStaticDocuments converts collected documents to artifact input.
func ToStaticDocuments(docs []render.SearchDocument) []staticindex.Document {
	out := make([]staticindex.Document, len(docs))
	for i, d := range docs {
		out[i] = staticindex.Document{
			URLPath:     d.URLPath,
			Title:       d.Title,
			Description: d.Description,
			Tags:        d.Tags,
			FileKind:    d.Kind,
			Body:        d.Body,
		}
	}
	return out
}

func (g *Generator) renderRecord(nav *sequence.Navigation, rec docindex.Record) error {
	src, err := os.ReadFile(filepath.Join(g.Loader.RootDir, filepath.FromSlash(rec.RawPath)))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := RenderPage(&buf, g.Renderer, nav, rec, src, PageOptions{SiteName: g.SiteName}); err != nil {
		return err
	}
	return g.writeFile(path.Join(rec.URLPath, "index.html"), buf.Bytes())
}

func (g *Generator) outPath(urlPath string) string {
	return filepath.Join(g.OutputDir, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
}

func (g *Generator) writeFile(urlPath string, data []byte) error {
	p := g.outPath(urlPath)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// copyAssets copies every non-markdown file (images, attachments) so
// relative references keep working. The output directory is skipped when it
// lives inside the corpus.
func (g *Generator) copyAssets() (int, error) {
	root, err := filepath.Abs(g.Loader.RootDir)
	if err != nil {
		return 0, err
	}
	out, err := filepath.Abs(g.OutputDir)
	if err != nil {
		return 0, err
	}

	copied := 0
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == out || docindex.IsHiddenPath(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".md") || docindex.IsHiddenPath(filepath.ToSlash(rel)) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := g.writeFile("/"+filepath.ToSlash(rel), data); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("copying assets: %w", err)
	}
	return copied, nil
}
