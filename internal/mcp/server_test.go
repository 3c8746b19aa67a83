package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
)

// mockBackend implements search.Backend for testing.
type mockBackend struct {
	results []search.Result
	err     error
	last    search.QueryContext
}

func (m *mockBackend) Search(_ context.Context, q search.QueryContext) (*search.Response, error) {
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	return &search.Response{Results: m.results, TotalMatches: len(m.results)}, nil
}

func setupTest(t *testing.T, backend search.Backend) *Server {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.md":       "---\ntitle: Handbook\n---\n# Welcome\n",
		"guide/index.md": "---\ntitle: Guide\n---\n# Guide\n\nRead [setup](setup.md) first.\n",
		"guide/setup.md": "---\ntitle: Setup\n---\n# Getting Started\n\n## Install\n\nRun the installer.\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	index := docindex.NewIndex()
	if err := docindex.Refresh(index, docindex.LoaderConfig{RootDir: root}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	srv := NewServer(index, backend, search.ModeLive, root)
	t.Cleanup(srv.Close)
	return srv
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_docs", searchDocsTool, "search_docs"},
		{"get_document", getDocumentTool, "get_document"},
		{"get_neighbors", getNeighborsTool, "get_neighbors"},
		{"get_tree", getTreeTool, "get_tree"},
		{"get_outline", getOutlineTool, "get_outline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleSearchDocs(t *testing.T) {
	backend := &mockBackend{results: []search.Result{
		{URLPath: "/guide/setup/", Title: "Setup", Score: 1.5, SnippetPlain: "Run the installer.", SnippetMarked: "Run the <mark>install</mark>er."},
	}}
	srv := setupTest(t, backend)
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		result, err := srv.handleSearchDocs(ctx, call(map[string]any{"query": "install", "folder": "guide"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Path: /guide/setup/") {
			t.Errorf("result text missing path: %s", text)
		}
		if !strings.Contains(text, "Run the installer.") || strings.Contains(text, "<mark>") {
			t.Errorf("result text should carry the plain snippet: %s", text)
		}
		if backend.last.FolderScope != search.FolderCurrent || backend.last.Folder != "guide" {
			t.Errorf("folder not passed through: %+v", backend.last)
		}
		if backend.last.Limit != 10 {
			t.Errorf("limit = %d, want default 10", backend.last.Limit)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		result, err := srv.handleSearchDocs(ctx, call(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("invalid scope", func(t *testing.T) {
		result, _ := srv.handleSearchDocs(ctx, call(map[string]any{"query": "x", "scope": "titles"}))
		if !result.IsError {
			t.Error("expected error for unknown scope")
		}
	})

	t.Run("index not built", func(t *testing.T) {
		notBuilt := setupTest(t, &mockBackend{err: &search.QueryError{Mode: search.ModeLive, Status: 503, Err: search.ErrIndexNotBuilt}})
		result, _ := notBuilt.handleSearchDocs(ctx, call(map[string]any{"query": "x"}))
		if !result.IsError || !strings.Contains(resultText(t, result), "not built") {
			t.Errorf("expected not-built error, got %v", result.Content)
		}
	})

	t.Run("no results", func(t *testing.T) {
		empty := setupTest(t, &mockBackend{})
		result, _ := empty.handleSearchDocs(ctx, call(map[string]any{"query": "anything"}))
		if result.IsError {
			t.Error("empty results should not be an error")
		}
	})
}

func TestHandleGetNeighbors(t *testing.T) {
	srv := setupTest(t, &mockBackend{})
	ctx := context.Background()

	result, err := srv.handleGetNeighbors(ctx, call(map[string]any{"path": "guide"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"Previous: Handbook (/)", "Next: Setup (/guide/setup/)", "Breadcrumbs: Handbook\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	result, _ = srv.handleGetNeighbors(ctx, call(map[string]any{"path": "/guide/setup/"}))
	text = resultText(t, result)
	if !strings.Contains(text, "Next: none (last document)") {
		t.Errorf("last document should have no next: %s", text)
	}
	if !strings.Contains(text, "Breadcrumbs: Handbook > Guide\n") {
		t.Errorf("breadcrumbs missing the guide folder: %s", text)
	}

	result, _ = srv.handleGetNeighbors(ctx, call(map[string]any{"path": "/missing/"}))
	if !result.IsError {
		t.Error("expected error for unknown path")
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv := setupTest(t, &mockBackend{})

	result, err := srv.handleGetDocument(context.Background(), call(map[string]any{"path": "/guide/setup/"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Run the installer.") || strings.Contains(text, "title: Setup") {
		t.Errorf("document text = %q", text)
	}
}

func TestHandleGetTree(t *testing.T) {
	srv := setupTest(t, &mockBackend{})
	ctx := context.Background()

	result, _ := srv.handleGetTree(ctx, call(map[string]any{}))
	if text := resultText(t, result); !strings.HasPrefix(text, "Handbook/ (3)") {
		t.Errorf("tree = %q", text)
	}

	result, _ = srv.handleGetTree(ctx, call(map[string]any{"folder": "/guide/"}))
	if text := resultText(t, result); !strings.HasPrefix(text, "Guide/ (2)") {
		t.Errorf("subtree = %q", text)
	}

	result, _ = srv.handleGetTree(ctx, call(map[string]any{"folder": "/nope/"}))
	if !result.IsError {
		t.Error("expected error for unknown folder")
	}
}

func TestHandleGetOutline(t *testing.T) {
	srv := setupTest(t, &mockBackend{})

	result, err := srv.handleGetOutline(context.Background(), call(map[string]any{"path": "/guide/setup/", "query": "gs"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.HasPrefix(text, "heading Getting Started -> #getting-started") {
		t.Errorf("outline = %q", text)
	}
}
