package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/issuance"
	"github.com/certportal/certportal/internal/otp"
	"github.com/certportal/certportal/internal/service"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error       string `json:"error"`
	Field       string `json:"field,omitempty"`
	CloseDialog bool   `json:"closeDialog,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErr maps err onto a status code and a message fit for operators
func respondErr(w http.ResponseWriter, err error) {
	body := ErrorResponse{Error: messageFor(err), CloseDialog: issuance.ClosesOTPDialog(err)}
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	respondJSON(w, statusFor(err), body)
}

func statusFor(err error) int {
	var ve *form.ValidationError
	var se *backend.ServerError
	var ce *backend.ConnectivityError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, otp.ErrExpired):
		return http.StatusGone
	case errors.Is(err, otp.ErrCooldown), errors.Is(err, service.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, otp.ErrMalformedCode), errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrMissingPhone),
		isFormError(err), errors.Is(err, service.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, issuance.ErrBusy), errors.Is(err, otp.ErrBusy),
		errors.Is(err, otp.ErrAlreadyRequested), errors.Is(err, otp.ErrNotRequested),
		errors.Is(err, otp.ErrCancelled), errors.Is(err, issuance.ErrNotVerified),
		errors.Is(err, issuance.ErrAlreadySubmitted), errors.Is(err, issuance.ErrStale),
		errors.Is(err, issuance.ErrClosed), errors.Is(err, issuance.ErrPreviewRequired):
		return http.StatusConflict
	case errors.Is(err, issuance.ErrWorkflowNotFound), errors.Is(err, issuance.ErrNoPreview),
		errors.Is(err, issuance.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, issuance.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.As(err, &ce), errors.Is(err, issuance.ErrUnexpectedContent), errors.Is(err, service.ErrNoToken):
		return http.StatusBadGateway
	case errors.As(err, &se):
		if se.Status >= 400 && se.Status < 500 {
			return se.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, service.ErrRateLimitExceeded):
		return "Too many OTP requests for this number. Please try again later."
	case errors.Is(err, otp.ErrCancelled), errors.Is(err, issuance.ErrStale):
		return "The form changed while the request was running. Please try again."
	case errors.Is(err, issuance.ErrClosed):
		return "This issuance was closed."
	case errors.Is(err, issuance.ErrWorkflowNotFound), errors.Is(err, issuance.ErrForbidden),
		errors.Is(err, issuance.ErrNoPreview), errors.Is(err, issuance.ErrArtifactNotFound),
		errors.Is(err, service.ErrInvalidProfile), errors.Is(err, service.ErrSessionExpired),
		isFormError(err):
		return err.Error()
	}
	return issuance.UserMessage(err)
}

var formErrors = []error{
	form.ErrUnknownAction,
	form.ErrUnknownCategory,
	form.ErrUnknownLetterType,
	form.ErrUnknownSubtype,
	form.ErrNoCategory,
	form.ErrNoLetterType,
	form.ErrUnknownField,
	form.ErrFieldNotApplicable,
}

func isFormError(err error) bool {
	for _, target := range formErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeDocument streams a rendered document. Attachments carry a filename
// and the server-assigned letter ID.
func writeDocument(w http.ResponseWriter, doc *backend.Document, filename string, attachment bool) {
	ct := doc.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	if filename != "" {
		disposition = mime.FormatMediaType(disposition, map[string]string{"filename": filename})
	}
	w.Header().Set("Content-Disposition", disposition)
	if doc.ID != "" {
		w.Header().Set("X-Letter-ID", doc.ID)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
