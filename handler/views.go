package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/MuthuAjay/contracts-v3/middleware"
	"github.com/MuthuAjay/contracts-v3/model"
	"github.com/MuthuAjay/contracts-v3/normalize"
	"github.com/MuthuAjay/contracts-v3/pkg/markdown"
	"github.com/MuthuAjay/contracts-v3/service"
	"github.com/gin-gonic/gin"
)

// ViewHandler renders stored analysis snapshots for the result views. Each
// view normalizes its snapshot into the four standard sections and returns
// both the markdown source and the rendered HTML, so clients can present
// either.
type ViewHandler struct {
	sessions *service.SessionStore
}

func NewViewHandler(sessions *service.SessionStore) *ViewHandler {
	return &ViewHandler{sessions: sessions}
}

type renderedSection struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// Review serves the contract review view
func (h *ViewHandler) Review(c *gin.Context) {
	h.renderSnapshot(c, service.KeyContractReview, nil)
}

// Research serves the legal research view
func (h *ViewHandler) Research(c *gin.Context) {
	h.renderSnapshot(c, service.KeyLegalResearch, nil)
}

// Risk serves the risk assessment view, tagging the snapshot with an
// indicative risk level derived from the text.
func (h *ViewHandler) Risk(c *gin.Context) {
	h.renderSnapshot(c, service.KeyRiskAssessment, func(resp gin.H, sections []renderedSection) {
		resp["riskLevel"] = riskLevel(sections)
	})
}

// renderSnapshot loads the snapshot under key, normalizes it into the
// standard sections, and renders each section to HTML. A missing snapshot
// returns 404 so the client can prompt the user to run the analysis.
func (h *ViewHandler) renderSnapshot(c *gin.Context, key string, decorate func(gin.H, []renderedSection)) {
	user := middleware.GetUsername(c)

	var snap model.AnalysisSnapshot
	ok, err := h.sessions.Get(c.Request.Context(), user, key, &snap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analysis"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis available"})
		return
	}

	canonical := normalize.Sections(snap.Result)
	sections := make([]renderedSection, 0, len(canonical))
	for _, title := range orderedTitles(canonical) {
		text := canonical[title]
		sections = append(sections, renderedSection{
			Title:    title,
			Markdown: text,
			HTML:     markdown.Render(text),
		})
	}

	resp := gin.H{
		"type":         snap.Type,
		"fileName":     snap.FileName,
		"analysisDate": snap.AnalysisDate,
		"isHistorical": snap.IsHistorical,
		"sections":     sections,
	}
	if decorate != nil {
		decorate(resp, sections)
	}

	c.JSON(http.StatusOK, resp)
}

// orderedTitles lists the standard sections first, then any extra keys in
// sorted order for a stable response.
func orderedTitles(sections model.Sections) []string {
	titles := make([]string, 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, title := range model.StandardSections() {
		if _, ok := sections[title]; ok {
			titles = append(titles, title)
			seen[title] = true
		}
	}

	extras := make([]string, 0)
	for title := range sections {
		if !seen[title] {
			extras = append(extras, title)
		}
	}
	sort.Strings(extras)

	return append(titles, extras...)
}

// riskLevel is a coarse keyword heuristic over the rendered sections,
// only ever an indicator next to the full text.
func riskLevel(sections []renderedSection) string {
	var text strings.Builder
	for _, s := range sections {
		text.WriteString(strings.ToLower(s.Markdown))
		text.WriteString("\n")
	}
	combined := text.String()

	high := []string{"high risk", "critical", "severe", "unlimited liability", "uncapped"}
	for _, kw := range high {
		if strings.Contains(combined, kw) {
			return "high"
		}
	}

	medium := []string{"medium risk", "moderate", "caution", "ambiguous", "one-sided"}
	for _, kw := range medium {
		if strings.Contains(combined, kw) {
			return "medium"
		}
	}

	return "low"
}

// Extraction serves the information extraction view as canonical records
func (h *ViewHandler) Extraction(c *gin.Context) {
	user := middleware.GetUsername(c)

	var stored struct {
		Extraction model.ExtractionResults `json:"Information Extraction"`
		FileName   string                  `json:"fileName"`
	}
	ok, err := h.sessions.Get(c.Request.Context(), user, service.KeyExtraction, &stored)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load extraction"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No extraction available"})
		return
	}

	// Group records by category preserving taxonomy order. Categories the
	// backend invents outside the taxonomy still get a group, sorted after
	// the known ones.
	grouped := make(map[string][]model.ExtractionRecord)
	for _, rec := range stored.Extraction.Results {
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}

	known := make(map[string]bool)
	categories := make([]gin.H, 0, len(grouped))
	for _, name := range normalize.CategoryNames() {
		known[name] = true
		if records, ok := grouped[name]; ok {
			categories = append(categories, gin.H{
				"category": name,
				"records":  records,
			})
		}
	}

	extras := make([]string, 0)
	for name := range grouped {
		if !known[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		categories = append(categories, gin.H{
			"category": name,
			"records":  grouped[name],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"fileName":   stored.FileName,
		"results":    stored.Extraction.Results,
		"categories": categories,
	})
}

type ReviewModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// GetReviewMode returns the persisted review display mode
func (h *ViewHandler) GetReviewMode(c *gin.Context) {
	user := middleware.GetUsername(c)

	mode := "sections"
	if _, err := h.sessions.Get(c.Request.Context(), user, service.KeyReviewViewMode, &mode); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load view mode"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

// SetReviewMode persists the review display mode
func (h *ViewHandler) SetReviewMode(c *gin.Context) {
	user := middleware.GetUsername(c)

	var req ReviewModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Mode != "sections" && req.Mode != "document" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown view mode: " + req.Mode})
		return
	}

	if err := h.sessions.Set(c.Request.Context(), user, service.KeyReviewViewMode, req.Mode); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save view mode"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mode": req.Mode})
}
