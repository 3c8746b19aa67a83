package mcp

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/fuzzy"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/sequence"
)

// handleSearchDocs runs a query against the configured search backend.
func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	q := search.QueryContext{
		RawQuery: query,
		Mode:     s.mode,
		Limit:    limit,
		Scope:    search.Scope(request.GetString("scope", "")),
		Filetype: search.Filetype(request.GetString("filetype", "")),
	}
	if folder := request.GetString("folder", ""); folder != "" {
		q.FolderScope = search.FolderCurrent
		q.Folder = folder
	}
	if err := q.Normalized().Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.backend.Search(ctx, q)
	if err != nil {
		if errors.Is(err, search.ErrIndexNotBuilt) {
			return mcp.NewToolResultError("The search index is not built yet. Try again once indexing finishes."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(resp.Results) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(resp)), nil
}

// handleGetDocument returns the markdown source of one document.
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, rec, res := s.lookup(request)
	if res != nil {
		return res, nil
	}

	body, err := docindex.ReadBody(s.rootDir, rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", rec.RawPath, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("# %s\n\nSource: %s\n\n%s", rec.Title(), rec.RawPath, body)), nil
}

// handleGetNeighbors reports where a document sits in reading order.
func (s *Server) handleGetNeighbors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nav, rec, res := s.lookup(request)
	if res != nil {
		return res, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document: %s (%s)\n", rec.Title(), rec.URLPath))

	crumbs := nav.Tree.Breadcrumbs(rec.URLPath)
	titles := make([]string, len(crumbs))
	for i, c := range crumbs {
		titles[i] = c.Title
	}
	sb.WriteString(fmt.Sprintf("Breadcrumbs: %s\n", strings.Join(titles, " > ")))

	prev, next, _ := nav.Sequence.Neighbors(rec.URLPath)
	if prev != nil {
		sb.WriteString(fmt.Sprintf("Previous: %s (%s)\n", prev.Title(), prev.URLPath))
	} else {
		sb.WriteString("Previous: none (first document)\n")
	}
	if next != nil {
		sb.WriteString(fmt.Sprintf("Next: %s (%s)\n", next.Title(), next.URLPath))
	} else {
		sb.WriteString("Next: none (last document)\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetTree prints the folder tree, or a subtree.
func (s *Server) handleGetTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nav, err := s.nav.Current()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("document index unavailable: %v", err)), nil
	}

	node := nav.Tree
	if folder := request.GetString("folder", ""); folder != "" && folder != "/" {
		found, ok := nav.Tree.Find(canonicalPath(folder))
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no folder at %q", folder)), nil
		}
		node = found
	}

	return mcp.NewToolResultText(node.ToText(nav.Sort)), nil
}

// handleGetOutline lists a document's headings and links.
func (s *Server) handleGetOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, rec, res := s.lookup(request)
	if res != nil {
		return res, nil
	}

	body, err := docindex.ReadBody(s.rootDir, rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", rec.RawPath, err)), nil
	}

	query := request.GetString("query", "")
	matches := fuzzy.Filter(fuzzy.Outline(body), query, fuzzy.Viewport{Bottom: -1})
	if len(matches) == 0 {
		return mcp.NewToolResultText("No matching headings or links."), nil
	}

	var sb strings.Builder
	for _, m := range matches {
		line := fmt.Sprintf("%s %s -> %s (line %d)", m.Kind, m.Text, m.Target, int(m.Top))
		if m.Kind == fuzzy.KindHeading {
			line = strings.Repeat("  ", max(m.Level-1, 0)) + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// lookup resolves the "path" argument. A non-nil result is the error to
// return to the caller.
func (s *Server) lookup(request mcp.CallToolRequest) (*sequence.Navigation, docindex.Record, *mcp.CallToolResult) {
	p, err := request.RequireString("path")
	if err != nil {
		return nil, docindex.Record{}, mcp.NewToolResultError("missing required parameter: path")
	}
	nav, err := s.nav.Current()
	if err != nil {
		return nil, docindex.Record{}, mcp.NewToolResultError(fmt.Sprintf("document index unavailable: %v", err))
	}
	rec, ok := nav.Sequence.Lookup(canonicalPath(p))
	if !ok {
		return nil, docindex.Record{}, mcp.NewToolResultError(fmt.Sprintf("no document at %q", p))
	}
	return nav, rec, nil
}

// canonicalPath accepts "/guide/setup", "guide/setup/" or "/guide/setup/".
func canonicalPath(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return p
	}
	return p + "/"
}

// formatSearchResults converts search results into a rich text format optimized
// for AI agent consumption.
func formatSearchResults(resp *search.Response) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s), showing %d:\n", resp.TotalMatches, len(resp.Results)))

	for i, r := range resp.Results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Title: %s\n", r.Title))
		sb.WriteString(fmt.Sprintf("Path: %s\n", r.URLPath))
		if r.Description != "" {
			sb.WriteString(fmt.Sprintf("Description: %s\n", r.Description))
		}
		if r.Tags != "" {
			sb.WriteString(fmt.Sprintf("Tags: %s\n", r.Tags))
		}
		if r.FileKind == search.KindOther {
			sb.WriteString("Type: other file\n")
		}
		sb.WriteString(fmt.Sprintf("Score: %.3f\n", r.Score))

		if r.SnippetPlain != "" {
			sb.WriteString("\n")
			sb.WriteString(r.SnippetPlain)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
