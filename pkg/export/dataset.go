package export

import (
	"fmt"
	"strings"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalises user input into a supported format.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Dataset defines tabular export content. Rows are positional and must have
// the same width as Headers.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer converts a dataset into an encoded document.
type Renderer interface {
	Render(Dataset) ([]byte, error)
}

// RendererFor returns the renderer backing a format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	case FormatXLSX:
		return NewXLSXExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}
