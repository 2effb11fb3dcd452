package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var sampleRows = [][]string{
	{
		"Margherita Pizza", "Classic tomato and mozzarella", "Pizza", "299", "", "yes",
		"15", "gluten,dairy", "0", "vegetarian", "bestseller",
		"Size", "Small:249:standalone,Medium:299:standalone,Large:349:standalone",
		"Crust", "Thin:0,Stuffed:60",
		"", "",
	},
	{
		"Masala Chai", "", "Beverages", "49", "", "yes",
		"5", "dairy", "1", "", "",
		"", "", "", "", "", "",
	},
}

// TemplateCSV renders a downloadable import template with the header row and
// two sample items.
func TemplateCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, row := range sampleRows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write sample row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TemplateXLSX renders the same template as an XLSX workbook.
func TemplateXLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range sampleRows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write sample row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
