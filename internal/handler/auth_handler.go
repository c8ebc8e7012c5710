package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/repository"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
	"github.com/stemsi/papercraft/internal/validator"
)

// AuthHandler handles author authentication endpoints.
type AuthHandler struct {
	authService   *service.AuthService
	authorService *service.AuthorService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, authorService *service.AuthorService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		authorService: authorService,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT. Logging in again ends the
// previous session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	author, err := h.authorService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		log.Error().Err(err).Msg("Login lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.authService.GenerateAuthorToken(c.Request.Context(), author.ID, author.Email)
	if err != nil {
		log.Error().Err(err).Int("author_id", author.ID).Msg("Issue token failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":  token,
		"author": author,
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated author.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	author, err := h.authorService.GetByID(c.Request.Context(), claims.AuthorID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"author": author})
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the author's session; the token stops working immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.AuthorID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ChangePassword godoc
// PUT /api/v1/auth/password
// Replaces the password after checking the current one. The session stays valid.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ChangePasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err := h.authorService.ChangePassword(c.Request.Context(), claims.AuthorID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"message": "password changed"})
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, repository.ErrAuthorNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		log.Error().Err(err).Int("author_id", claims.AuthorID).Msg("Change password failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
