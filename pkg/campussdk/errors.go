package campussdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/campus/pkg/httpx"
)

// Machine readable error codes carried in the "error" field.
const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeDuplicateEmail        = "duplicate_email"
	ErrorCodeAccountNotFound       = "account_not_found"
	ErrorCodeAlreadyVerified       = "already_verified"
	ErrorCodeInvalidOTP            = "invalid_otp"
	ErrorCodeOTPExpired            = "otp_expired"
	ErrorCodeOTPLocked             = "otp_locked"
	ErrorCodeOTPDeliveryFailed     = "otp_delivery_failed"
	ErrorCodeInvalidCredentials    = "invalid_credentials"
	ErrorCodeNotVerified           = "not_verified"
	ErrorCodeNotAuthenticated      = "not_authenticated"
	ErrorCodeAccessDenied          = "access_denied"
	ErrorCodeNotFound              = "not_found"
	ErrorCodeEventNotFound         = "event_not_found"
	ErrorCodeRegistrationNotFound  = "registration_not_found"
	ErrorCodeDuplicateRegistration = "duplicate_registration"
	ErrorCodeEventFull             = "event_full"
	ErrorCodeTokenGeneration       = "token_generation_failed"
	ErrorCodeInvalidTicket         = "invalid_ticket"
	ErrorCodeAlreadyCheckedIn      = "already_checked_in"
	ErrorCodeRateLimited           = "rate_limit_exceeded"
	ErrorCodeServerError           = "server_error"
)

// APIError is the error response shared by the server (to write it) and the
// client (to return it).
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code so callers can errors.Is against the predefined values.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as a JSON error response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(httpx.ErrorBody{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(description string) *APIError {
	cp := *e
	cp.Description = description
	return &cp
}

func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = NewAPIError(http.StatusBadRequest, ErrorCodeInvalidRequest,
		"the request is malformed or missing required fields")
	ErrDuplicateEmail = NewAPIError(http.StatusBadRequest, ErrorCodeDuplicateEmail,
		"Email already registered")
	ErrAccountNotFound = NewAPIError(http.StatusNotFound, ErrorCodeAccountNotFound,
		"User not found")
	ErrAlreadyVerified = NewAPIError(http.StatusBadRequest, ErrorCodeAlreadyVerified,
		"Email already verified")
	ErrInvalidOTP = NewAPIError(http.StatusBadRequest, ErrorCodeInvalidOTP,
		"Invalid OTP")
	ErrOTPExpired = NewAPIError(http.StatusBadRequest, ErrorCodeOTPExpired,
		"OTP expired. Please request a new one.")
	ErrOTPLocked = NewAPIError(http.StatusBadRequest, ErrorCodeOTPLocked,
		"Too many incorrect attempts. Please request a new OTP.")
	ErrOTPDelivery = NewAPIError(http.StatusBadGateway, ErrorCodeOTPDeliveryFailed,
		"Could not send the verification email. Please request a new OTP.")
	ErrInvalidCredentials = NewAPIError(http.StatusUnauthorized, ErrorCodeInvalidCredentials,
		"Invalid credentials")
	ErrNotVerified = NewAPIError(http.StatusUnauthorized, ErrorCodeNotVerified,
		"Please verify your email first")
	ErrNotAuthenticated = NewAPIError(http.StatusUnauthorized, ErrorCodeNotAuthenticated,
		"Not authenticated")
	ErrAccessDenied = NewAPIError(http.StatusForbidden, ErrorCodeAccessDenied,
		"Unauthorized")
	ErrAdminRequired = NewAPIError(http.StatusForbidden, ErrorCodeAccessDenied,
		"Admin access required")
	ErrNotFound = NewAPIError(http.StatusNotFound, ErrorCodeNotFound,
		"Not found")
	ErrEventNotFound = NewAPIError(http.StatusNotFound, ErrorCodeEventNotFound,
		"Event not found")
	ErrRegistrationNotFound = NewAPIError(http.StatusNotFound, ErrorCodeRegistrationNotFound,
		"Registration not found")
	ErrDuplicateRegistration = NewAPIError(http.StatusBadRequest, ErrorCodeDuplicateRegistration,
		"Already registered for this event")
	ErrEventFull = NewAPIError(http.StatusBadRequest, ErrorCodeEventFull,
		"Event is full")
	ErrTokenGeneration = NewAPIError(http.StatusInternalServerError, ErrorCodeTokenGeneration,
		"Registration failed")
	ErrInvalidTicket = NewAPIError(http.StatusBadRequest, ErrorCodeInvalidTicket,
		"Ticket is not valid")
	ErrAlreadyCheckedIn = NewAPIError(http.StatusBadRequest, ErrorCodeAlreadyCheckedIn,
		"Ticket already checked in")
	ErrRateLimited = NewAPIError(http.StatusTooManyRequests, ErrorCodeRateLimited,
		"Too many requests. Please try again later.")
	ErrServerError = NewAPIError(http.StatusInternalServerError, ErrorCodeServerError,
		"internal server error")
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp httpx.ErrorBody
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
