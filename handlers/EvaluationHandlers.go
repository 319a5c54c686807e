package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"procurement-backend/models"
	"procurement-backend/repository"
	"procurement-backend/workflow"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// EvaluateRFP ranks every quoted item across suppliers (L1, L2, ...)
// and moves submitted quotations to UNDER_EVALUATION.
// @Summary Evaluate RFP quotations
// @Tags Evaluation
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} models.EvaluationResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp/{id}/evaluate [get]
func EvaluateRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		comparison, rfp := evaluateAndPersist(c, db, rfpID)
		if rfp == nil {
			return
		}
		c.JSON(http.StatusOK, models.EvaluationResponse{RFP: rfp, Comparison: comparison})
	}
}

func evaluateAndPersist(c *gin.Context, db *sql.DB, rfpID int) ([]models.ItemComparison, *models.RFP) {
	rfp, err := repository.FetchRFP(db, rfpID)
	if err != nil {
		respondWorkflowError(c, err)
		return nil, nil
	}
	names, err := repository.FetchSupplierNames(db, rfp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve supplier names", "details": err.Error()})
		return nil, nil
	}

	comparison, err := workflow.Evaluate(rfp, names)
	if err != nil {
		respondWorkflowError(c, err)
		return nil, nil
	}

	tx, err := db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return nil, nil
	}
	defer tx.Rollback()
	if err := repository.UpdateQuotationStatuses(tx, rfp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist evaluation", "details": err.Error()})
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return nil, nil
	}
	return comparison, rfp
}

// ExportComparison downloads the comparative statement as a
// spreadsheet, one section per item with ranked supplier rows.
// @Summary Export comparative statement (XLSX)
// @Tags Evaluation
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "RFP ID"
// @Success 200 {file} binary
// @Router /api/rfp/{id}/comparison/export [get]
func ExportComparison(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		comparison, rfp := evaluateAndPersist(c, db, rfpID)
		if rfp == nil {
			return
		}

		f := excelize.NewFile()
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Failed to close spreadsheet: %v", err)
			}
		}()
		sheet := "Comparative Statement"
		index, err := f.NewSheet(sheet)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sheet", "details": err.Error()})
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		headerStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		})

		f.SetCellValue(sheet, "A1", fmt.Sprintf("Comparative Statement - %s", rfp.RFPNumber))
		f.SetCellValue(sheet, "A2", rfp.Title)
		f.SetCellValue(sheet, "A3", fmt.Sprintf("Closing date: %s", rfp.ClosingDate.Format("02-Jan-2006")))

		row := 5
		for _, item := range comparison {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.ItemName)
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), headerStyle)
			row++
			headers := []string{"Rank", "Supplier", "Quotation", "Unit Price", "Total", "Submitted"}
			for i, h := range headers {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, h)
			}
			row++
			for _, q := range item.Quotes {
				f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("L%d", q.Rank))
				f.SetCellValue(sheet, fmt.Sprintf("B%d", row), q.SupplierName)
				f.SetCellValue(sheet, fmt.Sprintf("C%d", row), q.QuotationID)
				f.SetCellValue(sheet, fmt.Sprintf("D%d", row), q.UnitPrice)
				f.SetCellValue(sheet, fmt.Sprintf("E%d", row), q.TotalPrice)
				f.SetCellValue(sheet, fmt.Sprintf("F%d", row), q.SubmittedAt.Format("02-Jan-2006 15:04"))
				row++
			}
			row++
		}
		f.SetColWidth(sheet, "A", "F", 22)

		fileName := fmt.Sprintf("comparison_%s_%s.xlsx", sanitizeFileName(rfp.RFPNumber), time.Now().Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			log.Printf("Failed to stream spreadsheet: %v", err)
		}
	}
}

func sanitizeFileName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
