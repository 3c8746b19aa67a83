package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchDocsTool defines the search_docs MCP tool.
var searchDocsTool = mcp.NewTool("search_docs",
	mcp.WithDescription("Full-text search over the markdown documents. Returns titles, paths, and highlighted snippets."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search terms; the last word also matches as a prefix"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("scope",
		mcp.Description("Which fields to match"),
		mcp.Enum("all", "metadata", "content"),
	),
	mcp.WithString("folder",
		mcp.Description("Restrict results to documents under this folder, e.g. /guide/"),
	),
	mcp.WithString("filetype",
		mcp.Description("Restrict to markdown or include other searchable files"),
		mcp.Enum("markdown", "all"),
	),
)

// getDocumentTool defines the get_document MCP tool.
var getDocumentTool = mcp.NewTool("get_document",
	mcp.WithDescription("Get the markdown source of a document by its URL path."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Document URL path, e.g. /guide/setup/"),
	),
)

// getNeighborsTool defines the get_neighbors MCP tool.
var getNeighborsTool = mcp.NewTool("get_neighbors",
	mcp.WithDescription("Get the previous and next documents in reading order, plus breadcrumbs."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Document URL path"),
	),
)

// getTreeTool defines the get_tree MCP tool.
var getTreeTool = mcp.NewTool("get_tree",
	mcp.WithDescription("Get the folder tree of the documents in sidebar order."),
	mcp.WithString("folder",
		mcp.Description("Folder URL path to start from (default /)"),
	),
)

// getOutlineTool defines the get_outline MCP tool.
var getOutlineTool = mcp.NewTool("get_outline",
	mcp.WithDescription("List the headings and links of a document, optionally fuzzy-filtered."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Document URL path"),
	),
	mcp.WithString("query",
		mcp.Description("Fuzzy filter, e.g. 'gs' for 'Getting Started'"),
	),
)
