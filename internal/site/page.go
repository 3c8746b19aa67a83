// Package site renders document pages with their navigation and publishes
// a corpus as a static site.
package site

import (
	"fmt"
	"html/template"
	"io"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/sequence"
)

// PageOptions are the per-deployment parts of a page.
type PageOptions struct {
	SiteName string
	Live     bool
}

// RenderPage writes the full HTML page for rec: rendered markdown, the
// sidebar tree with rec active, breadcrumbs and previous/next links.
func RenderPage(w io.Writer, r *render.Renderer, nav *sequence.Navigation, rec docindex.Record, src []byte, opts PageOptions) error {
	content, err := r.Markdown(src, rec.IsIndex(nav.IndexFile))
	if err != nil {
		return fmt.Errorf("rendering %s: %w", rec.RawPath, err)
	}

	page := render.Page{
		Title:       rec.Title(),
		SiteName:    opts.SiteName,
		Description: rec.Description(),
		Content:     content,
		TreeHTML:    template.HTML(nav.Tree.ToHTML(rec.URLPath, nav.Sort)),
		Live:        opts.Live,
	}
	for _, c := range nav.Tree.Breadcrumbs(rec.URLPath) {
		page.Breadcrumbs = append(page.Breadcrumbs, render.Link{Title: c.Title, URL: c.Path})
	}
	if prev, next, ok := nav.Sequence.Neighbors(rec.URLPath); ok {
		if prev != nil {
			page.Prev = &render.Link{Title: prev.Title(), URL: prev.URLPath}
		}
		if next != nil {
			page.Next = &render.Link{Title: next.Title(), URL: next.URLPath}
		}
	}
	return r.Execute(w, page)
}
