package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"procurement-backend/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var titleCaser = cases.Title(language.English)

// normalizeCatalogItem tidies free-text master data before it is
// stored: trimmed fields, title-cased make/category/sub-category.
func normalizeCatalogItem(item *models.CatalogItem) {
	item.Name = strings.TrimSpace(item.Name)
	item.Model = strings.TrimSpace(item.Model)
	item.Make = titleCaser.String(strings.TrimSpace(item.Make))
	item.Category = titleCaser.String(strings.TrimSpace(item.Category))
	item.SubCategory = titleCaser.String(strings.TrimSpace(item.SubCategory))
	item.UOM = strings.TrimSpace(item.UOM)
}

// GetCatalogItems lists catalog items with optional search and
// pagination.
// @Summary List catalog items
// @Tags Catalog
// @Produce json
// @Param q query string false "Search over name/model"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} object
// @Router /api/catalog_items [get]
func GetCatalogItems(catalogDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "25"))
		if err != nil || limit < 1 {
			limit = 25
		}

		query := catalogDB.Model(&models.CatalogItem{}).Where("active = true")
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			pattern := "%" + q + "%"
			query = query.Where("name ILIKE ? OR model ILIKE ?", pattern, pattern)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting catalog items", "details": err.Error()})
			return
		}

		var items []models.CatalogItem
		if err := query.Order("name").Offset((page - 1) * limit).Limit(limit).Find(&items).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching catalog items", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"items": items,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// CreateCatalogItem adds one item to the master.
// @Summary Create catalog item
// @Tags Catalog
// @Accept json
// @Produce json
// @Param body body models.CatalogItem true "Catalog item"
// @Success 201 {object} models.CatalogItem
// @Failure 400 {object} models.ErrorResponse
// @Router /api/catalog_items [post]
func CreateCatalogItem(catalogDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item models.CatalogItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		normalizeCatalogItem(&item)
		if item.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		item.Active = true
		item.CreatedAt = time.Now()
		item.UpdatedAt = time.Now()
		if err := catalogDB.Create(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create catalog item", "details": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// UpdateCatalogItem edits one item in the master.
// @Summary Update catalog item
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path int true "Catalog item ID"
// @Param body body models.CatalogItem true "Catalog item"
// @Success 200 {object} models.CatalogItem
// @Failure 404 {object} models.ErrorResponse
// @Router /api/catalog_items/{id} [put]
func UpdateCatalogItem(catalogDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid catalog item ID"})
			return
		}
		var existing models.CatalogItem
		if err := catalogDB.First(&existing, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Catalog item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching catalog item", "details": err.Error()})
			return
		}

		var item models.CatalogItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		normalizeCatalogItem(&item)
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		item.UpdatedAt = time.Now()
		if err := catalogDB.Save(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update catalog item", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DeactivateCatalogItem soft-deletes an item so historic purchase
// requests keep their references.
// @Summary Deactivate catalog item
// @Tags Catalog
// @Produce json
// @Param id path int true "Catalog item ID"
// @Success 200 {object} object
// @Router /api/catalog_items/{id} [delete]
func DeactivateCatalogItem(catalogDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid catalog item ID"})
			return
		}
		res := catalogDB.Model(&models.CatalogItem{}).Where("id = ?", id).
			Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate catalog item", "details": res.Error.Error()})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog item not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Catalog item deactivated"})
	}
}
