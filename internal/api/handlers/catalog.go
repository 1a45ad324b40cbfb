package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/certportal/certportal/internal/catalog"
)

// CatalogHandler serves the static letter-type catalog
type CatalogHandler struct {
	cat *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{cat: cat}
}

// Tree handles GET /api/catalog
func (h *CatalogHandler) Tree(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cat.Describe())
}

// Categories handles GET /api/catalog/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cat.Categories())
}

// LetterTypes handles GET /api/catalog/categories/{category}/letter-types
func (h *CatalogHandler) LetterTypes(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if !h.cat.Has(category) {
		respondError(w, http.StatusNotFound, "Unknown category")
		return
	}
	respondJSON(w, http.StatusOK, h.cat.LetterTypes(category))
}

// Subtypes handles GET /api/catalog/categories/{category}/letter-types/{letterType}/subtypes
func (h *CatalogHandler) Subtypes(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	letterType := chi.URLParam(r, "letterType")
	if !h.cat.HasLetterType(category, letterType) {
		respondError(w, http.StatusNotFound, "Unknown letter type")
		return
	}
	respondJSON(w, http.StatusOK, h.cat.Subtypes(category, letterType))
}

// Fields handles GET /api/catalog/fields?course=...
func (h *CatalogHandler) Fields(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, catalog.DescribeFields(r.URL.Query().Get("course")))
}
