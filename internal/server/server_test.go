package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/db"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/livesearch"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/staticindex"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupTest builds a server over a small corpus and returns it with the
// index and corpus root.
func setupTest(t *testing.T, cfg Config) (*Server, *docindex.Index, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "index.md", "---\ntitle: Handbook\n---\n# Welcome\n\nSee [setup](guide/setup.md).\n")
	writeFile(t, root, "guide/index.md", "---\ntitle: Guide\n---\nGuide overview.\n")
	writeFile(t, root, "guide/setup.md", "---\ntitle: Setup\n---\n# Install\n\nInstall the tool.\n\n## Configure\n\nEdit the file.\n")
	writeFile(t, root, "guide/diagram.png", "png-bytes")
	writeFile(t, root, ".git/config", "secret")
	writeFile(t, root, ".mbr.yml", "site_name: Handbook\n")
	writeFile(t, root, "guide/.draft.txt", "private")

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	renderer, err := render.New("")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	cfg.RootDir = root
	index := docindex.NewIndex()
	if err := docindex.Refresh(index, docindex.LoaderConfig{RootDir: root}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	srv := New(cfg, index, livesearch.NewEngine(database), renderer)
	t.Cleanup(srv.Close)
	return srv, index, root
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv, _, _ := setupTest(t, Config{})

	w := get(t, srv, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _, _ := setupTest(t, Config{AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestSiteJSON(t *testing.T) {
	srv, _, _ := setupTest(t, Config{})

	w := get(t, srv, docindex.SitePath)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	snap, err := docindex.Decode(w.Body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(snap.Files) != 3 {
		t.Errorf("expected 3 files, got %d", len(snap.Files))
	}
}

func TestSiteJSONBeforeLoad(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()
	renderer, _ := render.New("")

	srv := New(Config{}, docindex.NewIndex(), livesearch.NewEngine(database), renderer)
	defer srv.Close()

	if w := get(t, srv, docindex.SitePath); w.Code != http.StatusServiceUnavailable {
		t.Errorf("site.json: expected 503, got %d", w.Code)
	}
	if w := get(t, srv, "/guide/"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("page: expected 503, got %d", w.Code)
	}
	if w := get(t, srv, search.EndpointPath+"?q=install"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("search: expected 503, got %d", w.Code)
	}
}

func TestPageRendering(t *testing.T) {
	srv, _, _ := setupTest(t, Config{SiteName: "Docs"})

	w := get(t, srv, "/guide/setup")
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/guide/setup/" {
		t.Errorf("Location = %q, want /guide/setup/", loc)
	}

	w = get(t, srv, "/guide/setup/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Install the tool.", `data-live="true"`, `rel="prev" href="/guide/"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestCorpusFiles(t *testing.T) {
	srv, _, _ := setupTest(t, Config{})

	w := get(t, srv, "/guide/diagram.png")
	if w.Code != http.StatusOK || w.Body.String() != "png-bytes" {
		t.Errorf("asset: got %d %q", w.Code, w.Body.String())
	}
	if w := get(t, srv, "/.git/config"); w.Code != http.StatusNotFound {
		t.Errorf("hidden dir: expected 404, got %d", w.Code)
	}
	for _, hidden := range []string{"/.mbr.yml", "/guide/.draft.txt"} {
		if w := get(t, srv, hidden); w.Code != http.StatusNotFound {
			t.Errorf("hidden file %s: expected 404, got %d", hidden, w.Code)
		}
	}
	if w := get(t, srv, "/missing/"); w.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", w.Code)
	}
}

func TestNavEndpoint(t *testing.T) {
	srv, _, _ := setupTest(t, Config{})

	w := get(t, srv, NavPath+"?path=/guide/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp NavResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Prev == nil || resp.Prev.Path != "/" {
		t.Errorf("prev = %+v, want /", resp.Prev)
	}
	if resp.Next == nil || resp.Next.Path != "/guide/setup/" {
		t.Errorf("next = %+v, want /guide/setup/", resp.Next)
	}
	if resp.Title != "Guide" {
		t.Errorf("title = %q", resp.Title)
	}

	if w := get(t, srv, NavPath+"?path=/nope/"); w.Code != http.StatusNotFound {
		t.Errorf("unknown path: expected 404, got %d", w.Code)
	}
	if w := get(t, srv, NavPath); w.Code != http.StatusBadRequest {
		t.Errorf("missing path: expected 400, got %d", w.Code)
	}
}

func TestOutlineEndpoint(t *testing.T) {
	srv, _, _ := setupTest(t, Config{})

	w := get(t, srv, OutlinePath+"?path=/guide/setup/&q=conf")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp OutlineResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].Target != "#configure" {
		t.Errorf("matches = %+v, want the Configure heading", resp.Matches)
	}

	w = get(t, srv, OutlinePath+"?path=/guide/setup/")
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Matches) != 2 {
		t.Errorf("empty query: expected every heading, got %d", len(resp.Matches))
	}
}

func TestSearchFollowsRefresh(t *testing.T) {
	srv, index, root := setupTest(t, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	live := search.NewLiveBackend(ts.URL, nil)
	ctx := context.Background()

	resp, err := live.Search(ctx, search.QueryContext{RawQuery: "install"})
	if err != nil {
		t.Fatalf("live search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URLPath != "/guide/setup/" {
		t.Errorf("results = %+v", resp.Results)
	}

	writeFile(t, root, "guide/deploy.md", "---\ntitle: Deploy\n---\nShip to production.\n")
	if err := docindex.Refresh(index, docindex.LoaderConfig{RootDir: root}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	resp, err = live.Search(ctx, search.QueryContext{RawQuery: "production"})
	if err != nil {
		t.Fatalf("live search after refresh: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URLPath != "/guide/deploy/" {
		t.Errorf("results after refresh = %+v", resp.Results)
	}

	static := search.NewStaticBackend(search.HTTPSource{URL: search.ArtifactURL(ts.URL)}, staticindex.DefaultOptions(), 0)
	resp, err = static.Search(ctx, search.QueryContext{RawQuery: "production", Mode: search.ModeStatic})
	if err != nil {
		t.Fatalf("static search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URLPath != "/guide/deploy/" {
		t.Errorf("static results = %+v", resp.Results)
	}
}

func TestWebSocketRefreshEvents(t *testing.T) {
	srv, index, root := setupTest(t, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + WSPath
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != EventIndexRefreshed || ev.Generation != 1 {
		t.Errorf("first event = %+v, want refreshed generation 1", ev)
	}

	writeFile(t, root, "extra.md", "Extra page.\n")
	if err := docindex.Refresh(index, docindex.LoaderConfig{RootDir: root}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != EventIndexRefreshed || ev.Generation != 2 || ev.Documents != 4 {
		t.Errorf("refresh event = %+v, want generation 2 with 4 documents", ev)
	}

	os.RemoveAll(root)
	docindex.Refresh(index, docindex.LoaderConfig{RootDir: root})
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != EventIndexFailed || ev.Error == "" {
		t.Errorf("failure event = %+v", ev)
	}
}
