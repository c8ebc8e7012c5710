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

// QuestionHandler handles question endpoints inside a section.
type QuestionHandler struct {
	paperService *service.PaperService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(paperService *service.PaperService) *QuestionHandler {
	return &QuestionHandler{paperService: paperService}
}

// AddQuestion godoc
// POST /api/v1/papers/:id/sections/:section_id/questions
// Appends a blank question of the requested type with its default marks.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, q, err := h.paperService.AddQuestion(c.Request.Context(), authorID, paperID, c.Param("section_id"), model.QuestionType(req.Type))
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"paper": rec, "question": q})
}

// UpdateQuestion godoc
// PATCH /api/v1/papers/:id/sections/:section_id/questions/:question_id
// Merges the given fields. A field the question type does not carry is rejected.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.paperService.UpdateQuestion(c.Request.Context(), authorID, paperID,
		c.Param("section_id"), c.Param("question_id"), document.QuestionPatch{
			Text:          req.Text,
			Marks:         req.Marks,
			Options:       req.Options,
			Pairs:         req.Pairs,
			Passage:       req.Passage,
			CorrectAnswer: req.CorrectAnswer,
		})
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}

// DeleteQuestion godoc
// DELETE /api/v1/papers/:id/sections/:section_id/questions/:question_id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}
	rec, err := h.paperService.DeleteQuestion(c.Request.Context(), authorID, paperID, c.Param("section_id"), c.Param("question_id"))
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}

// MoveQuestion godoc
// POST /api/v1/papers/:id/sections/:section_id/questions/:question_id/move
func (h *QuestionHandler) MoveQuestion(c *gin.Context) {
	authorID, paperID, ok := paperTarget(c)
	if !ok {
		return
	}

	var req model.MoveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.paperService.MoveQuestion(c.Request.Context(), authorID, paperID,
		c.Param("section_id"), c.Param("question_id"), *req.Index)
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": rec})
}
