package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/errors"
	"github.com/hpungsan/suitecov/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// ModulesRequest represents the arguments for coverage_modules.
type ModulesRequest struct {
	Depth int `json:"depth,omitempty"`
}

// BrowseRequest represents the arguments for coverage_browse.
type BrowseRequest struct {
	Depth  int    `json:"depth,omitempty"`
	Module string `json:"module,omitempty"`
}

// ListRequest represents the pagination arguments shared by list tools.
type ListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// MatchRequest represents the arguments for coverage_match.
type MatchRequest struct {
	Filter string `json:"filter"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// CaseRequest represents the arguments for coverage_case.
type CaseRequest struct {
	Ref string `json:"ref"`
}

// TagsRequest represents the arguments for coverage_tags.
type TagsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HandleSummary handles the coverage_summary tool call.
func (h *Handlers) HandleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Summary(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleModules handles the coverage_modules tool call.
func (h *Handlers) HandleModules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ModulesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Depth < 0 {
		return errorResult(errors.NewInvalidRequest("depth must be positive")), nil
	}

	result, err := ops.Modules(ctx, h.db, h.cfg, ops.ModulesInput{Depth: input.Depth})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleBrowse handles the coverage_browse tool call.
func (h *Handlers) HandleBrowse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BrowseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Depth < 0 {
		return errorResult(errors.NewInvalidRequest("depth must be positive")), nil
	}

	result, err := ops.Browse(ctx, h.db, h.cfg, ops.BrowseInput{Depth: input.Depth, Module: input.Module})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleClasses handles the coverage_classes tool call.
func (h *Handlers) HandleClasses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Classes(ctx, h.db, h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSuites handles the coverage_suites tool call.
func (h *Handlers) HandleSuites(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Suites(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCollections handles the coverage_collections tool call.
func (h *Handlers) HandleCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Collections(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReused handles the coverage_reused tool call.
func (h *Handlers) HandleReused(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Reused(ctx, h.db, ops.ListInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUncovered handles the coverage_uncovered tool call.
func (h *Handlers) HandleUncovered(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Uncovered(ctx, h.db, ops.ListInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMatch handles the coverage_match tool call.
func (h *Handlers) HandleMatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MatchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Match(ctx, h.db, ops.MatchInput{
		Filter:    input.Filter,
		ListInput: ops.ListInput{Limit: input.Limit, Offset: input.Offset},
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCase handles the coverage_case tool call.
func (h *Handlers) HandleCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Case(ctx, h.db, h.cfg, ops.CaseInput{Ref: input.Ref})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTags handles the coverage_tags tool call.
func (h *Handlers) HandleTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Tags(ctx, h.db, h.cfg, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// RecommendationsResult wraps the recommendation list for JSON output.
type RecommendationsResult struct {
	Recommendations []ops.Recommendation `json:"recommendations"`
}

// HandleRecommendations handles the coverage_recommendations tool call.
func (h *Handlers) HandleRecommendations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := ops.Recommendations(ctx, h.db, h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(RecommendationsResult{Recommendations: recs})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var covErr *errors.CovError
	if stderrors.As(err, &covErr) {
		errorObj := map[string]any{
			"code":    covErr.Code,
			"message": covErr.Message,
			"status":  covErr.Status,
		}
		if covErr.Code != errors.ErrInternal {
			// Keep wrapper context such as "case 12: NOT_FOUND: ..."
			if err != error(covErr) {
				errorObj["message"] = err.Error()
			}
			if covErr.Details != nil {
				errorObj["details"] = covErr.Details
			}
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
