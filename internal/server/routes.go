package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/fuzzy"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/sequence"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/site"
)

// JSON endpoints for navigation and the in-page outline.
const (
	NavPath     = "/_mbr/api/nav"
	OutlinePath = "/_mbr/api/outline"
)

// NavLink is a titled link in a navigation response.
type NavLink struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// NavResponse describes a document's place in the reading order.
type NavResponse struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Prev        *NavLink  `json:"prev"`
	Next        *NavLink  `json:"next"`
	Breadcrumbs []NavLink `json:"breadcrumbs"`
	Generation  uint64    `json:"generation"`
}

// OutlineResponse lists the headings and links of a document, ranked
// against the query.
type OutlineResponse struct {
	Path    string        `json:"path"`
	Query   string        `json:"query"`
	Matches []fuzzy.Match `json:"matches"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func serveAsset(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}
}

// canonicalPath turns a request path into the URL path form used by records.
func canonicalPath(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return p
	}
	return p + "/"
}

func (s *Server) handleSiteJSON(w http.ResponseWriter, r *http.Request) {
	st, ok := s.index.Current()
	if !ok || !st.Ready() {
		msg := "document index not loaded"
		if st.Err != nil {
			msg = st.Err.Error()
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	docindex.Encode(w, st.Snapshot)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	data := s.artifact.Load()
	if data == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Write(*data)
}

// currentRecord resolves the "path" query parameter against the current
// navigation. On failure it has already written the response.
func (s *Server) currentRecord(w http.ResponseWriter, r *http.Request) (*sequence.Navigation, docindex.Record, bool) {
	nav, err := s.nav.Current()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, docindex.Record{}, false
	}
	raw := r.URL.Query().Get("path")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return nil, docindex.Record{}, false
	}
	urlPath := canonicalPath(raw)
	rec, ok := nav.Sequence.Lookup(urlPath)
	if !ok {
		writeError(w, http.StatusNotFound, "no document at "+urlPath)
		return nil, docindex.Record{}, false
	}
	return nav, rec, true
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	nav, rec, ok := s.currentRecord(w, r)
	if !ok {
		return
	}
	resp := NavResponse{
		Path:        rec.URLPath,
		Title:       rec.Title(),
		Breadcrumbs: []NavLink{},
		Generation:  nav.Generation,
	}
	prev, next, _ := nav.Sequence.Neighbors(rec.URLPath)
	if prev != nil {
		resp.Prev = &NavLink{Title: prev.Title(), Path: prev.URLPath}
	}
	if next != nil {
		resp.Next = &NavLink{Title: next.Title(), Path: next.URLPath}
	}
	for _, c := range nav.Tree.Breadcrumbs(rec.URLPath) {
		resp.Breadcrumbs = append(resp.Breadcrumbs, NavLink{Title: c.Title, Path: c.Path})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	_, rec, ok := s.currentRecord(w, r)
	if !ok {
		return
	}
	body, err := docindex.ReadBody(s.cfg.RootDir, rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	q := r.URL.Query()
	vp := fuzzy.Viewport{Top: 0, Bottom: -1}
	if top, err := strconv.ParseFloat(q.Get("top"), 64); err == nil {
		vp.Top = top
	}
	if bottom, err := strconv.ParseFloat(q.Get("bottom"), 64); err == nil {
		vp.Bottom = bottom
	}

	matches := fuzzy.Filter(fuzzy.Outline(body), q.Get("q"), vp)
	if matches == nil {
		matches = []fuzzy.Match{}
	}
	writeJSON(w, http.StatusOK, OutlineResponse{Path: rec.URLPath, Query: q.Get("q"), Matches: matches})
}

// handlePage renders the document at the request path, redirects to the
// canonical trailing-slash form, or falls back to a file from the corpus.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	nav, err := s.nav.Current()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	reqPath := r.URL.Path
	urlPath := canonicalPath(reqPath)
	if rec, ok := nav.Sequence.Lookup(urlPath); ok {
		if reqPath != urlPath {
			http.Redirect(w, r, urlPath, http.StatusMovedPermanently)
			return
		}
		s.renderRecord(w, nav, rec)
		return
	}

	s.serveFile(w, r)
}

func (s *Server) renderRecord(w http.ResponseWriter, nav *sequence.Navigation, rec docindex.Record) {
	src, err := os.ReadFile(filepath.Join(s.cfg.RootDir, filepath.FromSlash(rec.RawPath)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	opts := site.PageOptions{SiteName: s.cfg.SiteName, Live: true}
	if err := site.RenderPage(&buf, s.renderer, nav, rec, src, opts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// serveFile serves a non-markdown asset from the corpus. Excluded and hidden
// directories are never exposed.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if docindex.IsHiddenPath(rel) {
		http.NotFound(w, r)
		return
	}
	full := filepath.Join(s.cfg.RootDir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeFile(w, r, full)
}
