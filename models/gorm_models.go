package models

import "time"

// CatalogItem is the item master record the resolver matches against.
// Managed through GORM, unlike the transactional tables.
type CatalogItem struct {
	ID          int       `json:"id" gorm:"primaryKey;column:id"`
	Name        string    `json:"name" gorm:"column:name;index"`
	Model       string    `json:"model" gorm:"column:model;index"`
	Make        string    `json:"make" gorm:"column:make"`
	Category    string    `json:"category" gorm:"column:category"`
	SubCategory string    `json:"sub_category" gorm:"column:sub_category"`
	UOM         string    `json:"uom" gorm:"column:uom"`
	Description string    `json:"description" gorm:"column:description"`
	Active      bool      `json:"active" gorm:"column:active;default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName overrides the default pluralization.
func (CatalogItem) TableName() string {
	return "catalog_items"
}
