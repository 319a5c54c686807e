package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"procurement-backend/models"
	"procurement-backend/repository"

	"github.com/gin-gonic/gin"
)

// CreateSupplier registers a new supplier.
// @Summary Create supplier
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param body body models.Supplier true "Supplier data"
// @Success 201 {object} models.Supplier
// @Failure 400 {object} models.ErrorResponse
// @Router /api/create_supplier [post]
func CreateSupplier(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var supplier models.Supplier
		if err := c.ShouldBindJSON(&supplier); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if supplier.Name == "" || supplier.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and email are required"})
			return
		}

		supplier.SupplierID = repository.GenerateRandomNumber()
		if supplier.Status == "" {
			supplier.Status = "active"
		}
		supplier.CreatedAt = time.Now()
		supplier.UpdatedAt = time.Now()
		supplier.CreatedBy = userName
		supplier.UpdatedBy = userName

		_, err = db.Exec(`
			INSERT INTO inv_suppliers (supplier_id, name, email, phone, address, status, supplier_type,
				gst_number, created_at, updated_at, created_by, updated_by, project_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			supplier.SupplierID, supplier.Name, supplier.Email, supplier.Phone, supplier.Address,
			supplier.Status, supplier.SupplierType, supplier.GSTNumber,
			supplier.CreatedAt, supplier.UpdatedAt, supplier.CreatedBy, supplier.UpdatedBy, supplier.ProjectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create supplier", "details": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, supplier)

		logEntry := models.ActivityLog{
			EventContext: "Supplier",
			EventName:    "Create",
			Description:  fmt.Sprintf("Created supplier %s", supplier.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    supplier.ProjectID,
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log activity: %v", logErr)
		}
	}
}

// GetSuppliers lists suppliers with pagination and optional search.
// @Summary List suppliers
// @Tags Suppliers
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Param q query string false "Search over name/email"
// @Success 200 {object} object
// @Router /api/suppliers [get]
func GetSuppliers(db *sql.DB) gin.HandlerFunc {
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
		search := c.Query("q")

		countQuery := `SELECT COUNT(*) FROM inv_suppliers WHERE status != 'deleted'`
		listQuery := `
			SELECT supplier_id, name, email, COALESCE(phone, ''), COALESCE(address, ''), status,
			       COALESCE(supplier_type, ''), COALESCE(gst_number, ''), created_at, updated_at,
			       COALESCE(created_by, ''), COALESCE(updated_by, ''), project_id
			FROM inv_suppliers WHERE status != 'deleted'`
		args := []interface{}{}
		if search != "" {
			countQuery += ` AND (name ILIKE $1 OR email ILIKE $1)`
			listQuery += ` AND (name ILIKE $1 OR email ILIKE $1)`
			args = append(args, "%"+search+"%")
		}
		listQuery += fmt.Sprintf(` ORDER BY name LIMIT %d OFFSET %d`, limit, offset)

		var total int
		if err := db.QueryRow(countQuery, args...).Scan(&total); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting suppliers", "details": err.Error()})
			return
		}

		rows, err := db.Query(listQuery, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching suppliers", "details": err.Error()})
			return
		}
		defer rows.Close()

		var suppliers []models.Supplier
		for rows.Next() {
			var s models.Supplier
			if err := rows.Scan(&s.SupplierID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.Status,
				&s.SupplierType, &s.GSTNumber, &s.CreatedAt, &s.UpdatedAt,
				&s.CreatedBy, &s.UpdatedBy, &s.ProjectID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning suppliers", "details": err.Error()})
				return
			}
			suppliers = append(suppliers, s)
		}

		c.JSON(http.StatusOK, gin.H{
			"suppliers":   suppliers,
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		})
	}
}

// GetSupplier fetches one supplier.
// @Summary Get supplier
// @Tags Suppliers
// @Produce json
// @Param id path int true "Supplier ID"
// @Success 200 {object} models.Supplier
// @Failure 404 {object} models.ErrorResponse
// @Router /api/suppliers/{id} [get]
func GetSupplier(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier ID"})
			return
		}
		var s models.Supplier
		err = db.QueryRow(`
			SELECT supplier_id, name, email, COALESCE(phone, ''), COALESCE(address, ''), status,
			       COALESCE(supplier_type, ''), COALESCE(gst_number, ''), created_at, updated_at,
			       COALESCE(created_by, ''), COALESCE(updated_by, ''), project_id
			FROM inv_suppliers WHERE supplier_id = $1`, id).Scan(
			&s.SupplierID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.Status,
			&s.SupplierType, &s.GSTNumber, &s.CreatedAt, &s.UpdatedAt,
			&s.CreatedBy, &s.UpdatedBy, &s.ProjectID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching supplier", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// UpdateSupplier edits supplier master data.
// @Summary Update supplier
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param id path int true "Supplier ID"
// @Param body body models.Supplier true "Supplier data"
// @Success 200 {object} models.Supplier
// @Failure 404 {object} models.ErrorResponse
// @Router /api/suppliers/{id} [put]
func UpdateSupplier(db *sql.DB) gin.HandlerFunc {
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
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier ID"})
			return
		}
		var s models.Supplier
		if err := c.ShouldBindJSON(&s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		s.SupplierID = id
		s.UpdatedAt = time.Now()
		s.UpdatedBy = userName

		res, err := db.Exec(`
			UPDATE inv_suppliers SET name = $1, email = $2, phone = $3, address = $4, status = $5,
			       supplier_type = $6, gst_number = $7, updated_at = $8, updated_by = $9
			WHERE supplier_id = $10`,
			s.Name, s.Email, s.Phone, s.Address, s.Status, s.SupplierType, s.GSTNumber,
			s.UpdatedAt, s.UpdatedBy, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update supplier", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// DeleteSupplier soft-deletes a supplier; RFP history keeps referring
// to the id.
// @Summary Delete supplier
// @Tags Suppliers
// @Produce json
// @Param id path int true "Supplier ID"
// @Success 200 {object} object
// @Failure 404 {object} models.ErrorResponse
// @Router /api/suppliers/{id} [delete]
func DeleteSupplier(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier ID"})
			return
		}
		res, err := db.Exec(`UPDATE inv_suppliers SET status = 'deleted', updated_at = $1 WHERE supplier_id = $2`,
			time.Now(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete supplier", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted"})
	}
}
