package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "sofia/internal/errors"
	"sofia/internal/middleware"
)

const (
	maxUserIDLength = 128
	webUserPrefix   = "web_"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// pathUserID reads a user id path parameter.
// Returns ErrInvalidInput if it is blank or too long.
func pathUserID(c *gin.Context, param string) (string, error) {
	id := strings.TrimSpace(c.Param(param))
	if id == "" || len(id) > maxUserIDLength {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// webUserID maps a browser session onto the user id the assistant stores
// its records under.
func webUserID(sessionID string) string {
	return webUserPrefix + strings.TrimSpace(sessionID)
}
