package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/sequence"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the document index and search as
// tools for agents.
type Server struct {
	nav     *sequence.Navigator
	backend search.Backend
	mode    search.Mode
	rootDir string
	mcp     *server.MCPServer
}

// NewServer creates an MCP server over index. backend answers search_docs
// in the given mode; rootDir is where document sources are read from.
func NewServer(index *docindex.Index, backend search.Backend, mode search.Mode, rootDir string) *Server {
	s := &Server{
		nav:     sequence.NewNavigator(index),
		backend: backend,
		mode:    mode,
		rootDir: rootDir,
	}

	s.mcp = server.NewMCPServer(
		"mbr",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocsTool, s.handleSearchDocs)
	s.mcp.AddTool(getDocumentTool, s.handleGetDocument)
	s.mcp.AddTool(getNeighborsTool, s.handleGetNeighbors)
	s.mcp.AddTool(getTreeTool, s.handleGetTree)
	s.mcp.AddTool(getOutlineTool, s.handleGetOutline)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

// Close stops following the index.
func (s *Server) Close() { s.nav.Close() }
