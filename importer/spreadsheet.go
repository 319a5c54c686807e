package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Fixed column order of the upload template.
const (
	colModel = iota
	colMake
	colCategory
	colSubCategory
	colUOM
	colDescription
	colQuantity
	colUnitPrice
)

// headerRows is how many rows the upload template spends on titles
// and column captions before data starts.
const headerRows = 3

// ParseSpreadsheet reads the first sheet of an XLSX upload into rows.
// The three header rows are skipped. A row is silently discarded when
// its Model cell is blank or literally says "model", which guards
// against users re-importing the template's own header.
func ParseSpreadsheet(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	var rows []Row
	for i, cells := range raw {
		if i < headerRows {
			continue
		}
		model := strings.TrimSpace(cell(cells, colModel))
		if model == "" || strings.EqualFold(model, "model") {
			continue
		}
		rows = append(rows, Row{
			Model:       model,
			Make:        strings.TrimSpace(cell(cells, colMake)),
			Category:    strings.TrimSpace(cell(cells, colCategory)),
			SubCategory: strings.TrimSpace(cell(cells, colSubCategory)),
			UOM:         strings.TrimSpace(cell(cells, colUOM)),
			Description: strings.TrimSpace(cell(cells, colDescription)),
			Quantity:    strings.TrimSpace(cell(cells, colQuantity)),
			UnitPrice:   strings.TrimSpace(cell(cells, colUnitPrice)),
		})
	}
	return rows, nil
}

func cell(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
