package mcp

import (
	"context"
	"database/sql"
	"log"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/suitecov/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"coverage_summary": {
		def:     summaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummary },
	},
	"coverage_modules": {
		def:     modulesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleModules },
	},
	"coverage_browse": {
		def:     browseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBrowse },
	},
	"coverage_classes": {
		def:     classesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClasses },
	},
	"coverage_suites": {
		def:     suitesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuites },
	},
	"coverage_collections": {
		def:     collectionsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCollections },
	},
	"coverage_reused": {
		def:     reusedToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReused },
	},
	"coverage_uncovered": {
		def:     uncoveredToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUncovered },
	},
	"coverage_match": {
		def:     matchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMatch },
	},
	"coverage_case": {
		def:     caseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCase },
	},
	"coverage_tags": {
		def:     tagsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTags },
	},
	"coverage_recommendations": {
		def:     recommendationsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecommendations },
	},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server exposing the coverage tools.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"suitecov",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	for _, name := range ValidateDisabledTools(cfg.DisabledTools) {
		log.Printf("warning: unknown tool in disabled_tools: %q", name)
	}
	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
