package apihelpers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error kinds, used by handlers to branch on failure class without
// comparing messages.
const (
	KindValidation     = "validation"
	KindConflict       = "conflict"
	KindUnauthorized   = "unauthorized"
	KindNotFound       = "not_found"
	KindUploadFailed   = "upload_failed"
	KindDeliveryFailed = "delivery_failed"
	KindInternal       = "internal"
)

// APIResponse is the success envelope every endpoint returns.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// APIError is the failure envelope. It carries no internal error
// objects or secrets, only what the caller may see.
type APIError struct {
	Kind       string   `json:"-"`
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
	Success    bool     `json:"success"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(kind string, statusCode int, message string, errs ...string) *APIError {
	return &APIError{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
		Errors:     errs,
		Success:    false,
	}
}

func ErrValidation(message string, errs ...string) *APIError {
	return NewAPIError(KindValidation, http.StatusBadRequest, message, errs...)
}

func ErrConflict(message string) *APIError {
	return NewAPIError(KindConflict, http.StatusConflict, message)
}

func ErrUnauthorized(message string) *APIError {
	return NewAPIError(KindUnauthorized, http.StatusUnauthorized, message)
}

func ErrNotFound(message string) *APIError {
	return NewAPIError(KindNotFound, http.StatusNotFound, message)
}

func ErrUploadFailed(message string) *APIError {
	return NewAPIError(KindUploadFailed, http.StatusInternalServerError, message)
}

func ErrInternal(message string) *APIError {
	return NewAPIError(KindInternal, http.StatusInternalServerError, message)
}

// SendResponse writes the success envelope.
func SendResponse(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// SendError writes the failure envelope. Errors that are not an
// *APIError are rendered as a generic internal failure so stack traces
// and driver errors never reach the caller.
func SendError(c *gin.Context, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = ErrInternal("internal server error")
	}
	c.JSON(apiErr.StatusCode, apiErr)
}

// AbortWithError is SendError for middleware use.
func AbortWithError(c *gin.Context, err error) {
	SendError(c, err)
	c.Abort()
}
