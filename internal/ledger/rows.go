package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/xuri/excelize/v2"
)

// Row is one spreadsheet line of a user import. Line is 1-based and counts
// the header.
type Row struct {
	Line     int    `json:"line"`
	Name     string `json:"name"`
	UniqueID string `json:"unique_id,omitempty"`
	Email    string `json:"email"`
	Licenses int    `json:"licenses"`
	PodName  string `json:"pod_name,omitempty"`
}

var TemplateHeader = []string{"Name", "UniqueID", "Email", "Licenses", "PodName"}

var templateRows = [][]string{
	{"John Doe", "STU001", "john@email.com", "5", "CS Department"},
	{"Jane Smith", "STU002", "jane@email.com", "3", "CS Department"},
	{"Bob Wilson", "EMP001", "bob@company.com", "10", "IT Training Pod"},
}

const TemplateFileName = "mass_upload_template.csv"

func Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(TemplateHeader)
	_ = w.WriteAll(templateRows)
	return buf.Bytes()
}

var ErrUnsupportedFormat = errors.New("unsupported file format; upload .xlsx or .csv")

// ReadRows parses an uploaded sheet, picking the reader by file extension.
func ReadRows(r io.Reader, fileName string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Validation("file", "failed to read csv: %v", err)
	}
	return parseRecords(records)
}

func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("file", "failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("file", "spreadsheet has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRecords(records)
}

type columns struct {
	name, uniqueID, email, licenses, podName int
}

func headerKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
	return s
}

func mapHeader(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1}
	for i, h := range header {
		switch headerKey(h) {
		case "name", "fullname":
			cols.name = i
		case "uniqueid", "id", "studentid", "employeeid":
			cols.uniqueID = i
		case "email", "emailaddress":
			cols.email = i
		case "licenses", "license", "licences":
			cols.licenses = i
		case "podname", "pod":
			cols.podName = i
		}
	}
	if cols.email < 0 {
		return cols, apperr.Validation("file", "missing Email column")
	}
	return cols, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, apperr.Validation("file", "file is empty")
	}

	cols, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		if blank(record) {
			continue
		}

		licenses := 0
		if raw := cell(record, cols.licenses); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				f, ferr := strconv.ParseFloat(raw, 64)
				if ferr != nil || f != float64(int(f)) {
					return nil, apperr.Validation("licenses", "line %d: %q is not a whole number", line, raw)
				}
				n = int(f)
			}
			licenses = n
		}

		rows = append(rows, Row{
			Line:     line,
			Name:     cell(record, cols.name),
			UniqueID: cell(record, cols.uniqueID),
			Email:    cell(record, cols.email),
			Licenses: licenses,
			PodName:  cell(record, cols.podName),
		})
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
