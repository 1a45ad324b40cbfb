package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/certportal/certportal/internal/otp"
)

type otpSendRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type otpVerifyResponse struct {
	Success  *bool  `json:"success,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
	Message  string `json:"message,omitempty"`
}

// SendOTP asks the backend to deliver an issuance code to phone.
func (c *Client) SendOTP(ctx context.Context, phone, name string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/certificates/otp/send", otpSendRequest{Phone: phone, Name: name}, nil)
}

// VerifyOTP checks code with the backend. Rejections are reported as
// otp.ErrExpired or otp.ErrInvalidCode; transport failures pass through.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) error {
	var out otpVerifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/certificates/otp/verify", otpVerifyRequest{Phone: phone, OTP: code}, &out)
	if err != nil {
		var se *ServerError
		if !errors.As(err, &se) || se.Status >= 500 {
			return err
		}
		if expired(se.Status, se.Message) {
			return fmt.Errorf("%w: %s", otp.ErrExpired, se.Message)
		}
		return fmt.Errorf("%w: %s", otp.ErrInvalidCode, se.Message)
	}

	if (out.Success != nil && !*out.Success) || (out.Verified != nil && !*out.Verified) {
		if expired(http.StatusOK, out.Message) {
			return fmt.Errorf("%w: %s", otp.ErrExpired, out.Message)
		}
		return otp.ErrInvalidCode
	}
	return nil
}

func expired(status int, message string) bool {
	return status == http.StatusGone || strings.Contains(strings.ToLower(message), "expired")
}

var _ otp.Sender = (*Client)(nil)
