package issuance

import (
	"errors"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/otp"
)

// UserMessage turns any workflow error into the text shown to the operator.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *form.ValidationError
	var se *backend.ServerError
	var ce *backend.ConnectivityError
	var re *backend.RequestError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, otp.ErrExpired):
		return "OTP has expired. Please request a new one."
	case errors.Is(err, otp.ErrInvalidCode):
		return "Invalid OTP. Please try again."
	case errors.Is(err, otp.ErrMalformedCode):
		return "Please enter the 6-digit OTP."
	case errors.Is(err, otp.ErrMissingPhone):
		return "The selected recipient has no phone number."
	case errors.Is(err, otp.ErrCooldown):
		return "Please wait before requesting another OTP."
	case errors.Is(err, otp.ErrNotRequested), errors.Is(err, otp.ErrAlreadyRequested):
		return err.Error()
	case errors.Is(err, ErrNotVerified):
		return "Please verify the OTP before submitting."
	case errors.Is(err, ErrPreviewRequired):
		return "Please preview the document before submitting."
	case errors.Is(err, ErrAlreadySubmitted):
		return "This document has already been submitted."
	case errors.Is(err, ErrBusy), errors.Is(err, otp.ErrBusy):
		return "Please wait for the current request to finish."
	case errors.Is(err, ErrUnexpectedContent):
		return "The server returned a preview in an unsupported format."
	case errors.As(err, &ce):
		return "Unable to reach the server. Please check backend connectivity."
	case errors.As(err, &se):
		return se.Message
	case errors.As(err, &re):
		return "Something went wrong while preparing the request. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// ClosesOTPDialog reports whether err ends the OTP step, forcing the
// operator to request a new code.
func ClosesOTPDialog(err error) bool {
	return errors.Is(err, otp.ErrExpired)
}
