package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Supported export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ErrUnsupportedFormat is returned for formats other than csv and pdf.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// File is a rendered export ready to be streamed to the client.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Render encodes the dataset in the requested format. basename is used for the file name.
func Render(format, basename string, data Dataset) (*File, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		body, err := RenderCSV(data)
		if err != nil {
			return nil, err
		}
		return &File{Name: basename + ".csv", ContentType: "text/csv", Body: body}, nil
	case FormatPDF:
		body, err := RenderPDF(data)
		if err != nil {
			return nil, err
		}
		return &File{Name: basename + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// RenderCSV produces CSV encoded bytes for the dataset.
func RenderCSV(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(pad(row, len(data.Headers))); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF creates an A4 document with an optional title and a table body.
func RenderPDF(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, value := range pad(row, len(data.Headers)) {
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pad(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
