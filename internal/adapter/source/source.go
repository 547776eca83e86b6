// Package source reads tabular surveillance files from disk and hands their
// cells to the domain validators. CSV and Excel workbooks are supported.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/xuri/excelize/v2"
)

// table is a header row plus data rows, as read from a file.
type table struct {
	header []string
	rows   [][]string
}

// Load reads the case dataset at path. Any of the given covariates present
// in the header become part of the dataset schema.
func Load(path string, covariates []domain.Covariate) (*domain.Dataset, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return domain.BuildDataset(path, t.header, t.rows, covariates)
}

// LoadCitySummaries reads the optional per-city summary table at path.
func LoadCitySummaries(path string) (domain.CitySummaries, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return domain.BuildCitySummaries(path, t.header, t.rows)
}

func readTable(path string) (table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return table{}, &domain.NotFoundError{Source: path}
		}
		return table{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return table{}, &domain.NotFoundError{Source: path}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	default:
		return readCSV(path)
	}
}

func readCSV(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	return decodeCSV(path, f)
}

func decodeCSV(path string, r io.Reader) (table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			// Line 1 is the header; report data rows from 1 like the validators do.
			return table{}, &domain.ParseError{Source: path, Row: perr.Line - 1, Err: perr.Err}
		}
		return table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return table{}, nil
	}
	return table{header: records[0], rows: records[1:]}, nil
}

// readWorkbook reads the first sheet with any content. Cells are read raw so
// that date cells arrive as Excel serial numbers regardless of their display
// format; those are converted to ISO dates here.
func readWorkbook(path string) (table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		t := table{header: rows[0], rows: rows[1:]}
		convertSerialDates(t)
		return t, nil
	}
	return table{}, nil
}

// convertSerialDates rewrites numeric cells in the date column as ISO dates.
func convertSerialDates(t table) {
	col := -1
	for i, name := range t.header {
		if strings.EqualFold(strings.TrimSpace(name), domain.ColumnDate) {
			col = i
			break
		}
	}
	if col < 0 {
		return
	}

	for _, row := range t.rows {
		if col >= len(row) {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			continue
		}
		d, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		row[col] = d.Format(time.DateOnly)
	}
}
