package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"procurement-backend/models"

	"github.com/gin-gonic/gin"
)

// CreateNotification inserts one in-app notification for a user.
func CreateNotification(db *sql.DB, userID int, message, action string) error {
	_, err := db.Exec(`
		INSERT INTO notifications (user_id, message, status, action, created_at, updated_at)
		VALUES ($1, $2, 'unread', $3, $4, $5)`,
		userID, message, action, time.Now(), time.Now())
	return err
}

// NotifyGroup fans a notification out to every user in a role group.
func NotifyGroup(db *sql.DB, group, message, action string) error {
	rows, err := db.Query(`
		SELECT u.id FROM users u
		JOIN roles r ON u.role_id = r.id
		WHERE r.role_name = $1`, group)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if err := CreateNotification(db, id, message, action); err != nil {
			return err
		}
	}
	return nil
}

// NotifyUserByName resolves a "First Last" display name back to a
// user row and notifies them. Activity records store names, not ids,
// so this is the bridge for creator-facing notices.
func NotifyUserByName(db *sql.DB, userName, message, action string) error {
	var userID int
	err := db.QueryRow(`
		SELECT id FROM users
		WHERE CONCAT(first_name, ' ', last_name) = $1`, userName).Scan(&userID)
	if err != nil {
		return err
	}
	return CreateNotification(db, userID, message, action)
}

// GetNotifications lists a user's notifications, unread first.
// @Summary Get notifications
// @Tags Notifications
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {array} models.Notification
// @Router /api/notifications/user/{user_id} [get]
func GetNotifications(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		rows, err := db.Query(`
			SELECT id, user_id, message, status, COALESCE(action, ''), created_at, updated_at
			FROM notifications
			WHERE user_id = $1
			ORDER BY status DESC, created_at DESC
			LIMIT 100`, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching notifications", "details": err.Error()})
			return
		}
		defer rows.Close()

		var notifications []models.Notification
		for rows.Next() {
			var n models.Notification
			if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Status, &n.Action, &n.CreatedAt, &n.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning notifications", "details": err.Error()})
				return
			}
			notifications = append(notifications, n)
		}
		c.JSON(http.StatusOK, notifications)
	}
}

// MarkNotificationRead flips one notification to read.
// @Summary Mark notification as read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} object
// @Router /api/notifications/{id}/read [put]
func MarkNotificationRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
			return
		}
		res, err := db.Exec(`UPDATE notifications SET status = 'read', updated_at = $1 WHERE id = $2`, time.Now(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating notification", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
	}
}
