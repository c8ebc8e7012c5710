package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
	"github.com/stemsi/papercraft/internal/validator"
)

// SuggestionHandler handles AI suggestion endpoints of a section.
type SuggestionHandler struct {
	suggestionService *service.SuggestionService
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(suggestionService *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService}
}

// RequestSuggestions godoc
// POST /api/v1/papers/:id/sections/:section_id/suggestions
// Queues an AI request. The drafted questions are appended to the section
// when they arrive; progress is reported on the preview stream.
func (h *SuggestionHandler) RequestSuggestions(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	var req model.SuggestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	job, err := h.suggestionService.Request(c.Request.Context(), authorID, paperID,
		c.Param("section_id"), model.QuestionType(req.Type), req.Count)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"suggestion": gin.H{
		"section_id": job.SectionID,
		"type":       job.Type,
		"count":      job.Count,
		"queued_at":  job.QueuedAt,
	}})
}

// SuggestionStatus godoc
// GET /api/v1/papers/:id/sections/:section_id/suggestions
// Reports whether a suggestion is in flight and the last failure notice.
func (h *SuggestionHandler) SuggestionStatus(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	status, err := h.suggestionService.Status(c.Request.Context(), authorID, paperID, c.Param("section_id"))
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": status, "enabled": h.suggestionService.Enabled()})
}
