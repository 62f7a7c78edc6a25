package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Sheet1"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the optional title on the first row followed by the table.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(xlsxSheet, "A1", data.Title); err != nil {
			return nil, fmt.Errorf("write xlsx title: %w", err)
		}
		row = 3
	}

	if err := writeXLSXRow(f, row, data.Headers); err != nil {
		return nil, err
	}
	for _, values := range data.Rows {
		row++
		if err := writeXLSXRow(f, row, values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSXRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx cell name: %w", err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
		return fmt.Errorf("write xlsx row %d: %w", row, err)
	}
	return nil
}
