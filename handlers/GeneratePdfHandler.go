package handlers

import (
	"bytes"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// GenerateComparisonPDF renders the comparative statement as a PDF.
// The QR code in the header links back to the RFP in the app.
// @Summary Export comparative statement (PDF)
// @Tags Evaluation
// @Produce application/pdf
// @Param id path int true "RFP ID"
// @Success 200 {file} binary
// @Router /api/rfp/{id}/comparison/pdf [get]
func GenerateComparisonPDF(db *sql.DB) gin.HandlerFunc {
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

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.SetAutoPageBreak(true, 15)
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(150, 10, fmt.Sprintf("Comparative Statement - %s", rfp.RFPNumber), "", 0, "L", false, 0, "")

		link := fmt.Sprintf("%s/rfp/%d", baseAppURL(), rfp.ID)
		if png, err := qrcode.Encode(link, qrcode.Medium, 128); err == nil {
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("rfp-link", opts, bytes.NewReader(png))
			pdf.ImageOptions("rfp-link", 170, 8, 25, 25, false, opts, 0, "")
		} else {
			log.Printf("Failed to render QR code: %v", err)
		}
		pdf.Ln(12)

		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, rfp.Title, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Closing date: %s    Status: %s", rfp.ClosingDate.Format("02-Jan-2006"), rfp.Status), "", 1, "L", false, 0, "")
		pdf.Ln(6)

		colWidths := []float64{15, 55, 35, 30, 35}
		headers := []string{"Rank", "Supplier", "Unit Price", "Total", "Submitted"}
		for _, item := range comparison {
			pdf.SetFont("Arial", "B", 11)
			pdf.SetFillColor(221, 235, 247)
			pdf.CellFormat(170, 8, item.ItemName, "1", 1, "L", true, 0, "")

			pdf.SetFont("Arial", "B", 9)
			for i, h := range headers {
				pdf.CellFormat(colWidths[i], 7, h, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)

			pdf.SetFont("Arial", "", 9)
			for _, q := range item.Quotes {
				pdf.CellFormat(colWidths[0], 7, fmt.Sprintf("L%d", q.Rank), "1", 0, "C", false, 0, "")
				pdf.CellFormat(colWidths[1], 7, q.SupplierName, "1", 0, "L", false, 0, "")
				pdf.CellFormat(colWidths[2], 7, fmt.Sprintf("%.2f", q.UnitPrice), "1", 0, "R", false, 0, "")
				pdf.CellFormat(colWidths[3], 7, fmt.Sprintf("%.2f", q.TotalPrice), "1", 0, "R", false, 0, "")
				pdf.CellFormat(colWidths[4], 7, q.SubmittedAt.Format("02-Jan-06 15:04"), "1", 0, "C", false, 0, "")
				pdf.Ln(-1)
			}
			pdf.Ln(4)
		}

		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().Format("02-Jan-2006 15:04")), "", 1, "R", false, 0, "")

		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF", "details": err.Error()})
			return
		}

		fileName := fmt.Sprintf("comparison_%s.pdf", sanitizeFileName(rfp.RFPNumber))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}
