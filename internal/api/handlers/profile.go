package handlers

import (
	"net/http"
	"strconv"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/service"
	"github.com/certportal/certportal/internal/session"
)

// ProfileHandler serves the signed-in admin's profile, the admin directory
// and the issuance journal
type ProfileHandler struct {
	profiles *service.ProfileService
	journal  *service.JournalService
	api      *backend.Client
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *service.ProfileService, journal *service.JournalService, api *backend.Client) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, journal: journal, api: api}
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := session.UserFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile. The edit is saved locally even
// when the backend cannot be reached; the dirty flag tells the caller.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := session.UserFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var upd domain.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := h.profiles.Update(r.Context(), userID, upd)
	if err != nil {
		respondErr(w, err)
		return
	}
	status := http.StatusOK
	if p.Dirty {
		status = http.StatusAccepted
	}
	respondJSON(w, status, p)
}

// ListAdmins handles GET /api/admins
func (h *ProfileHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.api.ListAdmins(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, admins)
}

// Journal handles GET /api/journal?limit=N
func (h *ProfileHandler) Journal(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}
