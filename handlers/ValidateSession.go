package handlers

import (
	"database/sql"
	"net/http"

	"procurement-backend/models"

	"github.com/gin-gonic/gin"
)

// ValidateSession reports whether the session id in the Authorization
// header still maps to a live session. The frontend polls this on
// route changes.
// @Summary Validate session
// @Tags Auth
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/validate_session [get]
func ValidateSession(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		session, err := models.GetSessionBySessionID(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"valid":   true,
			"user_id": session.UserID,
		})
	}
}
