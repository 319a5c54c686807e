package handlers

import (
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"procurement-backend/models"
	"procurement-backend/repository"

	"github.com/gin-gonic/gin"
)

// CreatePurchaseRequest records a manually keyed purchase request.
// Spreadsheet uploads go through the import endpoint instead.
// @Summary Create purchase request
// @Tags PurchaseRequests
// @Accept json
// @Produce json
// @Param body body models.PurchaseRequest true "Purchase request"
// @Success 201 {object} models.PurchaseRequest
// @Failure 400 {object} models.ErrorResponse
// @Router /api/create_purchase_request [post]
func CreatePurchaseRequest(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		_, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var pr models.PurchaseRequest
		if err := c.ShouldBindJSON(&pr); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if len(pr.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Purchase request must have at least one item"})
			return
		}

		pr.ID = repository.GenerateRandomNumber()
		pr.PRNumber = repository.GeneratePRNumber()
		pr.Status = "DRAFT"
		pr.CreatedAt = time.Now()
		pr.UpdatedAt = time.Now()
		pr.CreatedBy = userName

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		if err := insertPurchaseRequest(tx, &pr); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save purchase request", "details": err.Error()})
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}
		c.JSON(http.StatusCreated, pr)
	}
}

// GetPurchaseRequest fetches one purchase request with its items.
// @Summary Get purchase request
// @Tags PurchaseRequests
// @Produce json
// @Param id path int true "Purchase request ID"
// @Success 200 {object} models.PurchaseRequest
// @Failure 404 {object} models.ErrorResponse
// @Router /api/purchase_requests/{id} [get]
func GetPurchaseRequest(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase request ID"})
			return
		}
		pr, err := fetchPurchaseRequest(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase request not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching purchase request", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, pr)
	}
}

func fetchPurchaseRequest(db *sql.DB, id int) (*models.PurchaseRequest, error) {
	var pr models.PurchaseRequest
	err := db.QueryRow(`
		SELECT id, pr_number, title, status, COALESCE(remarks, ''), project_id,
		       created_at, COALESCE(created_by, ''), updated_at
		FROM purchase_request WHERE id = $1`, id).Scan(
		&pr.ID, &pr.PRNumber, &pr.Title, &pr.Status, &pr.Remarks, &pr.ProjectID,
		&pr.CreatedAt, &pr.CreatedBy, &pr.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, request_id, item_id, name, COALESCE(make, ''), COALESCE(category, ''),
		       COALESCE(sub_category, ''), COALESCE(uom, ''), COALESCE(description, ''), quantity, unit_price
		FROM purchase_request_item WHERE request_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it models.PurchaseRequestItem
		if err := rows.Scan(&it.ID, &it.RequestID, &it.ItemID, &it.Name, &it.Make, &it.Category,
			&it.SubCategory, &it.UOM, &it.Description, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		pr.Items = append(pr.Items, it)
	}
	return &pr, rows.Err()
}

// GetPurchaseRequests lists purchase request headers.
// @Summary List purchase requests
// @Tags PurchaseRequests
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Param status query string false "Status filter"
// @Success 200 {object} object
// @Router /api/purchase_requests [get]
func GetPurchaseRequests(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil || limit < 1 {
			limit = 10
		}
		offset := (page - 1) * limit
		status := c.Query("status")

		countQuery := `SELECT COUNT(*) FROM purchase_request`
		listQuery := `
			SELECT id, pr_number, title, status, COALESCE(remarks, ''), project_id,
			       created_at, COALESCE(created_by, ''), updated_at
			FROM purchase_request`
		args := []interface{}{}
		if status != "" {
			countQuery += ` WHERE status = $1`
			listQuery += ` WHERE status = $1`
			args = append(args, status)
		}
		listQuery += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

		var total int
		if err := db.QueryRow(countQuery, args...).Scan(&total); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting purchase requests", "details": err.Error()})
			return
		}
		rows, err := db.Query(listQuery, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching purchase requests", "details": err.Error()})
			return
		}
		defer rows.Close()

		var requests []models.PurchaseRequest
		for rows.Next() {
			var pr models.PurchaseRequest
			if err := rows.Scan(&pr.ID, &pr.PRNumber, &pr.Title, &pr.Status, &pr.Remarks, &pr.ProjectID,
				&pr.CreatedAt, &pr.CreatedBy, &pr.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning purchase requests", "details": err.Error()})
				return
			}
			requests = append(requests, pr)
		}

		c.JSON(http.StatusOK, gin.H{
			"purchase_requests": requests,
			"page":              page,
			"limit":             limit,
			"total":             total,
			"total_pages":       int(math.Ceil(float64(total) / float64(limit))),
		})
	}
}

// UpdatePurchaseRequestStatus moves a purchase request between DRAFT,
// SUBMITTED, APPROVED and REJECTED.
// @Summary Update purchase request status
// @Tags PurchaseRequests
// @Accept json
// @Produce json
// @Param id path int true "Purchase request ID"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Router /api/purchase_requests/{id}/status [put]
func UpdatePurchaseRequestStatus(db *sql.DB) gin.HandlerFunc {
	valid := map[string]bool{"DRAFT": true, "SUBMITTED": true, "APPROVED": true, "REJECTED": true}
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase request ID"})
			return
		}
		var body struct {
			Status  string `json:"status"`
			Remarks string `json:"remarks"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if !valid[body.Status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status %q", body.Status)})
			return
		}
		res, err := db.Exec(`UPDATE purchase_request SET status = $1, remarks = $2, updated_at = $3 WHERE id = $4`,
			body.Status, body.Remarks, time.Now(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update purchase request", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase request not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Purchase request moved to %s", body.Status)})
	}
}

// DeletePurchaseRequest removes a draft purchase request.
// @Summary Delete purchase request
// @Tags PurchaseRequests
// @Produce json
// @Param id path int true "Purchase request ID"
// @Success 200 {object} object
// @Failure 409 {object} models.ErrorResponse
// @Router /api/purchase_requests/{id} [delete]
func DeletePurchaseRequest(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase request ID"})
			return
		}
		var status string
		err = db.QueryRow(`SELECT status FROM purchase_request WHERE id = $1`, id).Scan(&status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase request not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching purchase request", "details": err.Error()})
			return
		}
		if status != "DRAFT" {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("cannot delete a purchase request in status %s", status)})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()
		if _, err := tx.Exec(`DELETE FROM purchase_request_item WHERE request_id = $1`, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete purchase request items", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM purchase_request WHERE id = $1`, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete purchase request", "details": err.Error()})
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Purchase request deleted"})
	}
}
