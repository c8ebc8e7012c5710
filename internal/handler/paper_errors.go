package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/export"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/repository"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
)

// failPaper maps a paper, document or suggestion error to its HTTP response.
func failPaper(c *gin.Context, err error) {
	var parseErr *document.ParseError
	switch {
	case errors.As(err, &parseErr):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrValidation, parseErr.Reason)
	case errors.Is(err, service.ErrPaperNotFound),
		errors.Is(err, document.ErrSectionNotFound),
		errors.Is(err, document.ErrQuestionNotFound):
		response.FailWithDetail(c, http.StatusNotFound, response.ErrNotFound, err.Error())
	case errors.Is(err, service.ErrNotPaperAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotPaperAuthor)
	case errors.Is(err, repository.ErrVersionConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, document.ErrFieldNotApplicable):
		response.Fail(c, http.StatusBadRequest, response.ErrFieldNotApplicable)
	case errors.Is(err, document.ErrNegativeMarks),
		errors.Is(err, document.ErrMarksTooLarge),
		errors.Is(err, document.ErrTooManyChoices),
		errors.Is(err, document.ErrInvalidQuestionType),
		errors.Is(err, document.ErrDuplicateID),
		errors.Is(err, document.ErrNegativeDuration):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrValidation, err.Error())
	case errors.Is(err, service.ErrSuggestionInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSuggestionInProgress)
	case errors.Is(err, service.ErrAIDisabled):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrAIUnavailable)
	case errors.Is(err, export.ErrNoFont):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrPDFUnavailable)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled paper error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paperTarget reads the author from the claims and the paper id from the
// path, writing the error response itself when either is missing.
func paperTarget(c *gin.Context) (int, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, uuid.Nil, false
	}

	paperID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, uuid.Nil, false
	}
	return claims.AuthorID, paperID, true
}
