package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/papercraft/internal/export"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/render"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
)

// OutputHandler serves the rendered and exported forms of a paper.
type OutputHandler struct {
	paperService *service.PaperService
	pdfFontPath  string
}

// NewOutputHandler creates a new OutputHandler. An empty pdfFontPath
// disables PDF export.
func NewOutputHandler(paperService *service.PaperService, pdfFontPath string) *OutputHandler {
	return &OutputHandler{paperService: paperService, pdfFontPath: pdfFontPath}
}

func (h *OutputHandler) load(c *gin.Context) (*model.PaperRecord, bool) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return nil, false
	}
	rec, err := h.paperService.Get(c.Request.Context(), authorID, paperID)
	if err != nil {
		failPaper(c, err)
		return nil, false
	}
	return rec, true
}

// Preview godoc
// GET /api/v1/papers/:id/preview
// Returns the print layout as structured JSON.
func (h *OutputHandler) Preview(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"version": rec.Version,
		"preview": render.Render(rec.Paper),
	})
}

// PreviewText godoc
// GET /api/v1/papers/:id/preview.txt
// Returns the print layout as fixed-width plain text.
func (h *OutputHandler) PreviewText(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(render.Text(render.Render(rec.Paper))))
}

// Print godoc
// GET /api/v1/papers/:id/print
// Returns a self-contained A4 HTML page for the browser print dialog.
func (h *OutputHandler) Print(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.HTML(&buf, render.Render(rec.Paper)); err != nil {
		failPaper(c, err)
		return
	}
	c.Data(http.StatusOK, export.ContentTypeHTML, buf.Bytes())
}

// ExportJSON godoc
// GET /api/v1/papers/:id/export.json
// Downloads the paper document, importable through POST /papers/import.
func (h *OutputHandler) ExportJSON(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	data, err := json.MarshalIndent(rec.Paper, "", "  ")
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Attachment(c, export.ContentTypeJSON, export.FileName(rec.Paper, "json"), data)
}

// ExportPDF godoc
// GET /api/v1/papers/:id/export.pdf
func (h *OutputHandler) ExportPDF(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.PDF(&buf, render.Render(rec.Paper), h.pdfFontPath); err != nil {
		failPaper(c, err)
		return
	}
	response.Attachment(c, export.ContentTypePDF, export.FileName(rec.Paper, "pdf"), buf.Bytes())
}

// ExportXLSX godoc
// GET /api/v1/papers/:id/export.xlsx
// Downloads the marks breakdown per section and question.
func (h *OutputHandler) ExportXLSX(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	buf, err := export.MarksSheet(rec.Paper)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Attachment(c, export.ContentTypeXLSX, export.FileName(rec.Paper, "xlsx"), buf.Bytes())
}
