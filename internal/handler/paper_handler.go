package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
	"github.com/stemsi/papercraft/internal/validator"
)

// maxDocumentBytes bounds an imported or replacing paper document.
const maxDocumentBytes = 2 << 20

// PaperHandler handles paper lifecycle and metadata endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// ListPapers godoc
// GET /api/v1/papers
// Lists the author's papers, most recently edited first.
func (h *PaperHandler) ListPapers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	papers, total, err := h.paperService.List(c.Request.Context(), claims.AuthorID, page, perPage)
	if err != nil {
		failPaper(c, err)
		return
	}
	if papers == nil {
		papers = []model.PaperSummary{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"papers": papers}, response.NewPagination(page, perPage, total))
}

// CreatePaper godoc
// POST /api/v1/papers
// Creates a new paper with the default header and one empty section.
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	rec, err := h.paperService.Create(c.Request.Context(), claims.AuthorID)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"paper": rec})
}

// ImportPaper godoc
// POST /api/v1/papers/import
// Creates a paper from a previously exported document.
func (h *PaperHandler) ImportPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	raw, ok := readDocument(c)
	if !ok {
		return
	}
	rec, err := h.paperService.Import(c.Request.Context(), claims.AuthorID, raw)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"paper": rec})
}

// GetPaper godoc
// GET /api/v1/papers/:id
func (h *PaperHandler) GetPaper(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}
	rec, err := h.paperService.Get(c.Request.Context(), authorID, paperID)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}

// UpdatePaper godoc
// PATCH /api/v1/papers/:id
// Edits header metadata. Total marks cannot be set; they follow the questions.
func (h *PaperHandler) UpdatePaper(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	var req model.UpdatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	patch := document.MetadataPatch{
		SchoolName:          req.SchoolName,
		SchoolAddress:       req.SchoolAddress,
		ExamType:            req.ExamType,
		ClassName:           req.ClassName,
		Subject:             req.Subject,
		GeneralInstructions: req.GeneralInstructions,
	}
	if req.Duration != nil {
		patch.Duration = &model.Duration{Hours: req.Duration.Hours, Minutes: req.Duration.Minutes}
	}

	rec, err := h.paperService.UpdateMetadata(c.Request.Context(), authorID, paperID, patch)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}

// ReplaceDocument godoc
// PUT /api/v1/papers/:id/document
// Replaces the whole paper. An invalid document leaves the paper unchanged.
func (h *PaperHandler) ReplaceDocument(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	raw, ok := readDocument(c)
	if !ok {
		return
	}
	rec, err := h.paperService.ReplaceDocument(c.Request.Context(), authorID, paperID, raw)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}

// DeletePaper godoc
// DELETE /api/v1/papers/:id
func (h *PaperHandler) DeletePaper(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}
	if err := h.paperService.Delete(c.Request.Context(), authorID, paperID); err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "paper deleted"})
}

func readDocument(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes+1))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return nil, false
	}
	if len(raw) > maxDocumentBytes {
		response.FailWithDetail(c, http.StatusRequestEntityTooLarge, response.ErrInvalidPayload, "document is larger than 2 MiB")
		return nil, false
	}
	return raw, true
}
