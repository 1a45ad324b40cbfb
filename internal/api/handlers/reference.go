package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/domain"
)

// ReferenceHandler proxies the backend's reference data: people, batches,
// categories, student documents and issued letters
type ReferenceHandler struct {
	api *backend.Client
}

// NewReferenceHandler creates a new reference handler
func NewReferenceHandler(api *backend.Client) *ReferenceHandler {
	return &ReferenceHandler{api: api}
}

// ListPeople handles GET /api/people
func (h *ReferenceHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	people, err := h.api.ListPeople(r.Context(), domain.PeopleFilter{Category: q.Get("category"), Batch: q.Get("batch")})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, people)
}

// CreatePerson handles POST /api/people
func (h *ReferenceHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var p domain.Person
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Phone) == "" || p.Category == "" {
		respondError(w, http.StatusBadRequest, "Name, phone and category are required")
		return
	}
	out, err := h.api.CreatePerson(r.Context(), p)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

// UpdatePerson handles PUT /api/people/{id}
func (h *ReferenceHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	var p domain.Person
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	out, err := h.api.UpdatePerson(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// DeletePerson handles DELETE /api/people/{id}
func (h *ReferenceHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeletePerson(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBatches handles GET /api/batches
func (h *ReferenceHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.api.ListBatches(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

// CreateBatch handles POST /api/batches
func (h *ReferenceHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var b domain.Batch
	if err := decodeJSON(r, &b); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(b.Name) == "" || b.Category == "" {
		respondError(w, http.StatusBadRequest, "Name and category are required")
		return
	}
	out, err := h.api.CreateBatch(r.Context(), b)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

// UpdateBatch handles PUT /api/batches/{id}
func (h *ReferenceHandler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	var b domain.Batch
	if err := decodeJSON(r, &b); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	out, err := h.api.UpdateBatch(r.Context(), chi.URLParam(r, "id"), b)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// DeleteBatch handles DELETE /api/batches/{id}
func (h *ReferenceHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteBatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/categories
func (h *ReferenceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.api.ListCategories(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

// CreateCategory handles POST /api/categories
func (h *ReferenceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	out, err := h.api.CreateCategory(r.Context(), c)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *ReferenceHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	out, err := h.api.UpdateCategory(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *ReferenceHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /api/documents
func (h *ReferenceHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.api.ListStudentDocuments(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

// UpdateDocumentStatus handles PUT /api/documents/{studentID}/{docType}/status
func (h *ReferenceHandler) UpdateDocumentStatus(w http.ResponseWriter, r *http.Request) {
	var upd domain.DocumentStatusUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !upd.Status.Valid() {
		respondError(w, http.StatusBadRequest, "Status must be pending, verified or rejected")
		return
	}
	if err := h.api.UpdateDocumentStatus(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "docType"), upd); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.MessageResponse{Success: true, Message: "Document status updated"})
}

// ListCertificates handles GET /api/certificates
func (h *ReferenceHandler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	certs, err := h.api.ListCertificates(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, certs)
}

// ListCodeLetters handles GET /api/codeletters
func (h *ReferenceHandler) ListCodeLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := h.api.ListCodeLetters(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, letters)
}

// DownloadCertificate handles GET /api/certificates/{id}/download?format=pdf|jpg
func (h *ReferenceHandler) DownloadCertificate(w http.ResponseWriter, r *http.Request) {
	format := domain.DownloadFormat(r.URL.Query().Get("format"))
	if format != "" && format != domain.FormatPDF && format != domain.FormatJPG {
		respondError(w, http.StatusBadRequest, "Format must be pdf or jpg")
		return
	}
	id := chi.URLParam(r, "id")
	doc, err := h.api.Download(r.Context(), id, format)
	if err != nil {
		respondErr(w, err)
		return
	}
	name := doc.Filename
	if name == "" {
		ext := "pdf"
		if format == domain.FormatJPG {
			ext = "jpg"
		}
		name = id + "." + ext
	}
	writeDocument(w, doc, name, true)
}

// DownloadLetter handles GET /api/letters/{id}/download
func (h *ReferenceHandler) DownloadLetter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.api.DownloadLetter(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	name := doc.Filename
	if name == "" {
		name = id + ".pdf"
	}
	writeDocument(w, doc, name, true)
}

// UpdateLetterStatus handles PUT /api/letters/{id}/status
func (h *ReferenceHandler) UpdateLetterStatus(w http.ResponseWriter, r *http.Request) {
	var upd domain.StatusUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !upd.Status.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown letter status")
		return
	}
	if err := h.api.UpdateLetterStatus(r.Context(), chi.URLParam(r, "id"), upd); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.MessageResponse{Success: true, Message: "Letter status updated"})
}
