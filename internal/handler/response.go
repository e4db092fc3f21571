package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
)

// ErrorResponse is the error body returned by every endpoint. Error is
// a stable kind clients can switch on; Message is human-readable.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: "BadRequest", Message: message}
}

func NewUnauthorizedResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: "Unauthorized", Message: message}
}

func NewForbiddenResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: "Forbidden", Message: message}
}

// RespondError maps an application error onto its HTTP status.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), ErrorResponse{
			Error:   appErr.Kind(),
			Message: appErr.Message,
		})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal",
		Message: "internal server error",
	})
}
