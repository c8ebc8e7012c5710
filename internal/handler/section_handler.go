package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
	"github.com/stemsi/papercraft/internal/validator"
)

// SectionHandler handles section endpoints of a paper.
type SectionHandler struct {
	paperService *service.PaperService
}

// NewSectionHandler creates a new SectionHandler.
func NewSectionHandler(paperService *service.PaperService) *SectionHandler {
	return &SectionHandler{paperService: paperService}
}

// AddSection godoc
// POST /api/v1/papers/:id/sections
// Appends an empty section titled after its position.
func (h *SectionHandler) AddSection(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}
	rec, section, err := h.paperService.AddSection(c.Request.Context(), authorID, paperID)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"paper": rec, "section": section})
}

// UpdateSection godoc
// PATCH /api/v1/papers/:id/sections/:section_id
// Merges title, instructions or a replacement question list.
func (h *SectionHandler) UpdateSection(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	var req model.UpdateSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.paperService.UpdateSection(c.Request.Context(), authorID, paperID, c.Param("section_id"), document.SectionPatch{
		Title:        req.Title,
		Instructions: req.Instructions,
		Questions:    req.Questions,
	})
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}

// DeleteSection godoc
// DELETE /api/v1/papers/:id/sections/:section_id
func (h *SectionHandler) DeleteSection(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}
	rec, err := h.paperService.DeleteSection(c.Request.Context(), authorID, paperID, c.Param("section_id"))
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}

// MoveSection godoc
// POST /api/v1/papers/:id/sections/:section_id/move
// Moves the section to a zero-based index; out of range indexes are clamped.
func (h *SectionHandler) MoveSection(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	var req model.MoveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.paperService.MoveSection(c.Request.Context(), authorID, paperID, c.Param("section_id"), *req.Index)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}
