// Package importer reads card templates from spreadsheets. Column A holds the
// front, B the back and C an optional hint.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lingobox/lingobox/internal/models"
)

// PreferredSheet is read when present; otherwise the first sheet is used.
const PreferredSheet = "Cards"

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format: expected .xlsx or .csv")

// Parse reads rows from r, choosing the format by filename extension. Blank
// rows and a leading header row whose first cell is "front" are dropped.
func Parse(filename string, r io.Reader) ([]models.ImportRow, error) {
	var (
		records []record
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		records, err = readExcel(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

type record struct {
	line  int
	cells []string
}

func readExcel(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, PreferredSheet) {
			sheet = name
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	records := make([]record, len(rows))
	for i, row := range rows {
		records[i] = record{line: i + 1, cells: row}
	}
	return records, nil
}

func readCSV(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var records []record
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, cells: cells})
	}
	return records, nil
}

func toRows(records []record) []models.ImportRow {
	var rows []models.ImportRow
	headerChecked := false
	for _, rec := range records {
		row := models.ImportRow{
			Line:  rec.line,
			Front: cell(rec.cells, 0),
			Back:  cell(rec.cells, 1),
			Hint:  cell(rec.cells, 2),
		}
		if row.Front == "" && row.Back == "" && row.Hint == "" {
			continue
		}
		if !headerChecked {
			headerChecked = true
			if strings.EqualFold(strings.TrimPrefix(row.Front, "\ufeff"), "front") {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
