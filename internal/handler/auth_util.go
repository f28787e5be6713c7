package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"project-field-api/internal/response"
)

// AuthData holds the authenticated user extracted from the request context.
type AuthData struct {
	UserID uuid.UUID
}

// ExtractAuthData reads the user id the auth middleware stored on the Gin
// context. Writes the error response itself when the request is unauthenticated.
func ExtractAuthData(c *gin.Context) (AuthData, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User ID not found in context")
		return AuthData{}, false
	}
	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Invalid user ID format")
		return AuthData{}, false
	}
	return AuthData{UserID: userUUID}, true
}
