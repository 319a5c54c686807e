package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildSheet(t *testing.T, dataRows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	// the upload template spends three rows on titles and captions
	require.NoError(t, f.SetCellValue(sheet, "A1", "Purchase Request Import"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Fill from row 4 onwards"))
	header := []interface{}{"Model", "Make", "Category", "Sub Category", "UOM", "Description", "Quantity", "Unit Price"}
	require.NoError(t, f.SetSheetRow(sheet, "A3", &header))

	for i, row := range dataRows {
		cell, err := excelize.CoordinatesToCellName(1, 4+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestParseSpreadsheetSkipsHeaderRows(t *testing.T) {
	r := buildSheet(t, [][]interface{}{
		{"ThinkPad E14", "Lenovo", "IT Hardware", "Laptops", "Nos", "finance team", 10, 45000},
		{"HDMI Cable 2m", "Generic", "IT Hardware", "Accessories", "Nos", "", 25, 250},
	})
	rows, err := ParseSpreadsheet(r)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "ThinkPad E14", rows[0].Model)
	assert.Equal(t, "Lenovo", rows[0].Make)
	assert.Equal(t, "10", rows[0].Quantity)
	assert.Equal(t, "45000", rows[0].UnitPrice)
	assert.Equal(t, "HDMI Cable 2m", rows[1].Model)
}

func TestParseSpreadsheetDiscardsBlankAndTemplateRows(t *testing.T) {
	r := buildSheet(t, [][]interface{}{
		{"", "", "", "", "", "", "", ""},
		{"Model", "Make", "Category", "Sub Category", "UOM", "Description", "Quantity", "Unit Price"},
		{"MODEL"},
		{"Real Item", "", "", "", "Nos", "", 3, ""},
	})
	rows, err := ParseSpreadsheet(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Real Item", rows[0].Model)
}

func TestParseSpreadsheetShortRows(t *testing.T) {
	r := buildSheet(t, [][]interface{}{
		{"Bare Item"},
	})
	rows, err := ParseSpreadsheet(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bare Item", rows[0].Model)
	assert.Equal(t, "", rows[0].UnitPrice)
	assert.Equal(t, "", rows[0].Quantity)
}

func TestParseSpreadsheetRejectsGarbage(t *testing.T) {
	_, err := ParseSpreadsheet(bytes.NewReader([]byte("not a spreadsheet")))
	assert.Error(t, err)
}
