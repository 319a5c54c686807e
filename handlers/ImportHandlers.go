package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"procurement-backend/importer"
	"procurement-backend/models"
	"procurement-backend/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// gormCatalogSearcher backs the import resolver with the GORM-managed
// item master.
type gormCatalogSearcher struct {
	db *gorm.DB
}

func (s *gormCatalogSearcher) Search(ctx context.Context, query string) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	pattern := "%" + query + "%"
	err := s.db.WithContext(ctx).
		Where("active = true").
		Where("name ILIKE ? OR model ILIKE ?", pattern, pattern).
		Limit(20).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ImportPurchaseRequest uploads a filled requisition spreadsheet,
// matches every row against the catalog in batches and creates one
// purchase request holding the resulting items. Rows that fail
// validation abort the import before any matching; rows the catalog
// cannot resolve are kept verbatim with item id 0.
// @Summary Import purchase request from spreadsheet
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX file"
// @Param title formData string false "Purchase request title"
// @Param project_id formData int false "Project ID"
// @Success 201 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Router /api/purchase_requests/import [post]
func ImportPurchaseRequest(db *sql.DB, catalogDB *gorm.DB) gin.HandlerFunc {
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

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "details": err.Error()})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file", "details": err.Error()})
			return
		}
		defer file.Close()

		rows, err := importer.ParseSpreadsheet(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse spreadsheet", "details": err.Error()})
			return
		}
		if len(rows) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Spreadsheet contains no data rows"})
			return
		}

		engine := importer.NewEngine(&gormCatalogSearcher{db: catalogDB}, func(completed, total int) {
			log.Printf("import %s: %d/%d items matched", fileHeader.Filename, completed, total)
		})
		items, err := engine.Run(c.Request.Context(), rows)
		if err != nil {
			var batchErr *importer.BatchValidationError
			if errors.As(err, &batchErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "rows": batchErr.Rows})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed", "details": err.Error()})
			return
		}

		title := c.PostForm("title")
		if title == "" {
			title = fmt.Sprintf("Imported from %s", fileHeader.Filename)
		}
		projectID := 0
		fmt.Sscanf(c.PostForm("project_id"), "%d", &projectID)

		pr := models.PurchaseRequest{
			ID:        repository.GenerateRandomNumber(),
			PRNumber:  repository.GeneratePRNumber(),
			Title:     title,
			Status:    "DRAFT",
			ProjectID: projectID,
			Items:     items,
			CreatedAt: time.Now(),
			CreatedBy: userName,
			UpdatedAt: time.Now(),
		}

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

		resolved := 0
		for _, it := range items {
			if it.ItemID != 0 {
				resolved++
			}
		}
		c.JSON(http.StatusCreated, models.ImportResult{
			RequestID:    pr.ID,
			TotalRows:    len(items),
			ResolvedRows: resolved,
			FallbackRows: len(items) - resolved,
			Items:        items,
		})

		logEntry := models.ActivityLog{
			EventContext: "PurchaseRequest",
			EventName:    "Import",
			Description:  fmt.Sprintf("Imported %s as %s: %d rows, %d matched", fileHeader.Filename, pr.PRNumber, len(items), resolved),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log activity: %v", logErr)
		}
	}
}

func insertPurchaseRequest(tx *sql.Tx, pr *models.PurchaseRequest) error {
	_, err := tx.Exec(`
		INSERT INTO purchase_request (id, pr_number, title, status, remarks, project_id, created_at, created_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pr.ID, pr.PRNumber, pr.Title, pr.Status, pr.Remarks, pr.ProjectID, pr.CreatedAt, pr.CreatedBy, pr.UpdatedAt)
	if err != nil {
		return err
	}
	for i := range pr.Items {
		it := &pr.Items[i]
		it.RequestID = pr.ID
		err := tx.QueryRow(`
			INSERT INTO purchase_request_item (request_id, item_id, name, make, category, sub_category, uom, description, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			it.RequestID, it.ItemID, it.Name, it.Make, it.Category, it.SubCategory, it.UOM, it.Description, it.Quantity, it.UnitPrice,
		).Scan(&it.ID)
		if err != nil {
			return err
		}
	}
	return nil
}
