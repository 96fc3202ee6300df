package web

import (
	"bytes"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/errors"
	"github.com/hpungsan/suitecov/internal/ops"
	"github.com/hpungsan/suitecov/internal/report"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleReport handles GET /report: the full coverage report rendered from Markdown.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := ops.BuildReport(r.Context(), h.db, h.cfg, ops.ReportInput{
		Depth: parseIntParam(r, "depth", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var md bytes.Buffer
	if err := report.Markdown(&md, rep); err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	h.renderer.renderPage(w, "report", ReportPageData{
		PageData: PageData{
			Title:   "Coverage Report",
			Version: h.renderer.version,
			Nav:     "report",
		},
		ReportID:     rep.ID,
		RenderedHTML: renderMarkdown(md.String()),
	})
}

// HandleCase handles GET /cases/{id}: one test case and the suites covering it.
// The id may also be a GUID.
func (h *Handlers) HandleCase(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("test case id is required"))
		return
	}

	out, err := ops.Case(r.Context(), h.db, h.cfg, ops.CaseInput{Ref: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, out)
		return
	}

	h.renderer.renderPage(w, "case", CasePageData{
		PageData: PageData{
			Title:   out.Case.Name,
			Version: h.renderer.version,
		},
		Case: out,
	})
}

// HandleBrowse handles GET /browse: every test case grouped by module path.
// Accepts depth and module query parameters.
func (h *Handlers) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Browse(r.Context(), h.db, h.cfg, ops.BrowseInput{
		Depth:  parseIntParam(r, "depth", 0),
		Module: r.URL.Query().Get("module"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, out)
		return
	}

	h.renderer.renderPage(w, "browse", BrowsePageData{
		PageData: PageData{
			Title:   "Browse",
			Version: h.renderer.version,
			Nav:     "browse",
		},
		Result: out,
	})
}

// HandleMatch handles GET /match: a form that evaluates a filter expression.
func (h *Handlers) HandleMatch(w http.ResponseWriter, r *http.Request) {
	filter := strings.TrimSpace(r.URL.Query().Get("filter"))
	data := MatchPageData{
		PageData: PageData{
			Title:   "Match",
			Version: h.renderer.version,
			Nav:     "match",
		},
		Filter:   filter,
		HasQuery: filter != "",
	}

	if filter != "" {
		out, err := ops.Match(r.Context(), h.db, matchInput(r, filter))
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Result = out
	}

	h.renderer.renderPage(w, "match", data)
}

// HandleAPISummary handles GET /api/summary.
func (h *Handlers) HandleAPISummary(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Summary(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAPIMatch handles GET /api/match?filter=.
func (h *Handlers) HandleAPIMatch(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	if strings.TrimSpace(filter) == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("filter parameter is required"))
		return
	}

	out, err := ops.Match(r.Context(), h.db, matchInput(r, filter))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

func matchInput(r *http.Request, filter string) ops.MatchInput {
	return ops.MatchInput{
		Filter: filter,
		ListInput: ops.ListInput{
			Limit:  parseIntParam(r, "limit", 100),
			Offset: parseIntParam(r, "offset", 0),
		},
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
