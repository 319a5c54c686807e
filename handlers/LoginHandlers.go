package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"procurement-backend/models"
	"procurement-backend/storage"
	"procurement-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Login authenticates a user and opens a session. The returned
// session id goes into the Authorization header of every later call.
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/login [post]
func Login(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var user models.User
		var passwordHash string
		err := db.QueryRow(`
			SELECT id, first_name, last_name, email, password, role_id
			FROM users WHERE email = $1`, req.Email).Scan(
			&user.ID, &user.FirstName, &user.LastName, &user.Email, &passwordHash, &user.RoleID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching user", "details": err.Error()})
			return
		}
		if err := utils.CheckPassword(passwordHash, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		sessionID := uuid.NewString()
		accessToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token", "details": err.Error()})
			return
		}
		refreshToken, err := utils.GenerateRefreshToken(user.Email, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token", "details": err.Error()})
			return
		}

		session := models.Session{
			UserID:                user.ID,
			SessionID:             sessionID,
			HostName:              c.Request.Host,
			IPAddress:             c.ClientIP(),
			Timestamp:             time.Now(),
			ExpiresAt:             time.Now().Add(24 * time.Hour),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: time.Now().Add(15 * 24 * time.Hour),
		}
		if err := storage.SaveSession(db, &session, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session", "details": err.Error()})
			return
		}

		userName := fmt.Sprintf("%s %s", user.FirstName, user.LastName)
		c.JSON(http.StatusOK, models.LoginResponse{
			SessionID:    sessionID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			UserID:       user.ID,
			UserName:     userName,
			RoleID:       user.RoleID,
		})

		logEntry := models.ActivityLog{
			EventContext: "Auth",
			EventName:    "Login",
			Description:  fmt.Sprintf("%s logged in", userName),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log activity: %v", logErr)
		}
	}
}

// RefreshToken issues a fresh access token against a valid refresh
// token.
// @Summary Refresh access token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/refresh_token [post]
func RefreshToken(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		token, err := utils.ValidateJWT(body.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token", "details": err.Error()})
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["type"] != "refresh" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not a refresh token"})
			return
		}
		email, _ := claims["email"].(string)
		sessionID, _ := claims["sessionId"].(string)

		var storedToken string
		var expiresAt time.Time
		err = db.QueryRow(`SELECT refresh_token, refresh_token_expires_at FROM session WHERE session_id = $1`,
			sessionID).Scan(&storedToken, &expiresAt)
		if err == sql.ErrNoRows || (err == nil && storedToken != body.RefreshToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching session", "details": err.Error()})
			return
		}
		if time.Now().After(expiresAt) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
			return
		}

		accessToken, err := utils.GenerateJWT(email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
	}
}

// Logout closes the calling session.
// @Summary Logout
// @Tags Auth
// @Produce json
// @Success 200 {object} object
// @Router /api/logout [post]
func Logout(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		if err := storage.DeleteSession(db, sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}
