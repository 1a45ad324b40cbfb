package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/issuance"
	"github.com/certportal/certportal/internal/session"
)

// WorkflowResponse wraps a workflow view with its ID
type WorkflowResponse struct {
	ID       string             `json:"id"`
	Workflow issuance.View      `json:"workflow"`
	Effect   *form.Effect       `json:"effect,omitempty"`
	Preview  *issuance.Artifact `json:"preview,omitempty"`
	Receipt  *issuance.Receipt  `json:"receipt,omitempty"`
	Error    *ErrorResponse     `json:"error,omitempty"`
}

// VerifyRequest carries the code typed by the operator
type VerifyRequest struct {
	OTP string `json:"otp"`
}

// WorkflowHandler drives issuance workflows over HTTP
type WorkflowHandler struct {
	registry *issuance.Registry
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(registry *issuance.Registry) *WorkflowHandler {
	return &WorkflowHandler{registry: registry}
}

func (h *WorkflowHandler) workflow(w http.ResponseWriter, r *http.Request) (string, *issuance.Workflow, bool) {
	id := chi.URLParam(r, "id")
	owner, _ := session.IDFromContext(r.Context())
	wf, err := h.registry.Get(id, owner)
	if err != nil {
		respondErr(w, err)
		return "", nil, false
	}
	return id, wf, true
}

// Create handles POST /api/workflows
func (h *WorkflowHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, _ := session.IDFromContext(r.Context())
	id, wf := h.registry.Create(owner)
	respondJSON(w, http.StatusCreated, WorkflowResponse{ID: id, Workflow: wf.View()})
}

// Get handles GET /api/workflows/{id}
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, WorkflowResponse{ID: id, Workflow: wf.View()})
}

// Delete handles DELETE /api/workflows/{id}
func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, _ := session.IDFromContext(r.Context())
	if err := h.registry.Close(chi.URLParam(r, "id"), owner); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Apply handles POST /api/workflows/{id}/actions
func (h *WorkflowHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	var action form.Action
	if err := decodeJSON(r, &action); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	eff, err := wf.Apply(action)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, WorkflowResponse{ID: id, Workflow: wf.View(), Effect: &eff})
}

// Validate handles POST /api/workflows/{id}/validate
func (h *WorkflowHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	if err := wf.Validate(); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// SendOTP handles POST /api/workflows/{id}/otp/send
func (h *WorkflowHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	if err := wf.RequestOTP(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, WorkflowResponse{ID: id, Workflow: wf.View()})
}

// ResendOTP handles POST /api/workflows/{id}/otp/resend
func (h *WorkflowHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	if err := wf.ResendOTP(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, WorkflowResponse{ID: id, Workflow: wf.View()})
}

// CancelOTP handles POST /api/workflows/{id}/otp/cancel
func (h *WorkflowHandler) CancelOTP(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	wf.CancelOTP()
	respondJSON(w, http.StatusOK, WorkflowResponse{ID: id, Workflow: wf.View()})
}

// VerifyOTP handles POST /api/workflows/{id}/otp/verify. A verified code is
// followed by a preview; a preview failure is reported next to the
// verified workflow rather than as a failed verification.
func (h *WorkflowHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := wf.Gate().Submit(r.Context(), req.OTP); err != nil {
		respondErr(w, err)
		return
	}

	resp := WorkflowResponse{ID: id}
	art, err := wf.Preview(r.Context())
	if err != nil {
		resp.Error = &ErrorResponse{Error: messageFor(err)}
	} else {
		resp.Preview = &art
	}
	resp.Workflow = wf.View()
	respondJSON(w, http.StatusOK, resp)
}

// Preview handles POST /api/workflows/{id}/preview
func (h *WorkflowHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	art, err := wf.Preview(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, WorkflowResponse{ID: id, Workflow: wf.View(), Preview: &art})
}

// PreviewContent handles GET /api/workflows/{id}/preview
func (h *WorkflowHandler) PreviewContent(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	art, err := wf.PreviewArtifact()
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeDocument(w, &backend.Document{Data: art.Data, ContentType: art.ContentType, Kind: art.Kind}, "", false)
}

// DismissPreview handles DELETE /api/workflows/{id}/preview
func (h *WorkflowHandler) DismissPreview(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	wf.DismissPreview()
	w.WriteHeader(http.StatusNoContent)
}

// Submit handles POST /api/workflows/{id}/submit and returns the issued
// document as an attachment
func (h *WorkflowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	receipt, err := wf.Submit(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	writeDocument(w, receipt.Document, receipt.Filename, true)
}
