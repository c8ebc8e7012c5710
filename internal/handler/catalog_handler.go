package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/response"
)

// CatalogHandler serves the fixed editor vocabulary.
type CatalogHandler struct {
	catalog model.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{catalog: model.NewCatalog()}
}

// GetCatalog godoc
// GET /api/v1/public/catalog
// Returns classes, subjects, exam types, question types and symbol palettes.
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"catalog": h.catalog})
}
