package handlers

import (
	"database/sql"
	"math"
	"net/http"
	"strconv"

	"procurement-backend/models"

	"github.com/gin-gonic/gin"
)

// Helper to fetch session details
func GetSessionDetails(db *sql.DB, sessionID string) (models.Session, string, error) {
	var session models.Session
	var userName string

	query := `
        SELECT s.user_id, CONCAT(u.first_name, ' ', u.last_name) AS user_name, s.host_name, s.ip_address
        FROM session s
        JOIN users u ON s.user_id = u.id
        WHERE s.session_id = $1`

	err := db.QueryRow(query, sessionID).Scan(
		&session.UserID,
		&userName,
		&session.HostName,
		&session.IPAddress,
	)
	if err != nil {
		return models.Session{}, "", err
	}
	return session, userName, nil
}

// Helper to save activity logs
func SaveActivityLog(db *sql.DB, log models.ActivityLog) error {
	query := `
    INSERT INTO activity_logs (
        created_at, user_name, host_name, event_context, ip_address,
        description, event_name, affected_user_name, affected_user_email, project_id
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := db.Exec(query,
		log.CreatedAt, log.UserName, log.HostName, log.EventContext, log.IPAddress,
		log.Description, log.EventName, log.AffectedUserName, log.AffectedUserEmail, log.ProjectID,
	)
	return err
}

// GetActivityLogsHandler godoc
// @Summary      Get activity logs
// @Tags         activity-logs
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Success      200    {object}  object
// @Router       /api/logs [get]
func GetActivityLogsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "10")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			limit = 10
		}

		offset := (page - 1) * limit

		var totalRecords int
		countQuery := `SELECT COUNT(*) FROM activity_logs`
		if err := db.QueryRow(countQuery).Scan(&totalRecords); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting logs"})
			return
		}

		query := `
			SELECT id, created_at, user_name, host_name, event_context, ip_address,
			       description, event_name, COALESCE(affected_user_name, ''), COALESCE(affected_user_email, ''), project_id
			FROM activity_logs
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`
		rows, err := db.Query(query, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching logs", "details": err.Error()})
			return
		}
		defer rows.Close()

		var logs []models.ActivityLog
		for rows.Next() {
			var l models.ActivityLog
			if err := rows.Scan(&l.ID, &l.CreatedAt, &l.UserName, &l.HostName, &l.EventContext,
				&l.IPAddress, &l.Description, &l.EventName, &l.AffectedUserName, &l.AffectedUserEmail, &l.ProjectID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning logs", "details": err.Error()})
				return
			}
			logs = append(logs, l)
		}

		c.JSON(http.StatusOK, gin.H{
			"logs":        logs,
			"page":        page,
			"limit":       limit,
			"total":       totalRecords,
			"total_pages": int(math.Ceil(float64(totalRecords) / float64(limit))),
		})
	}
}
