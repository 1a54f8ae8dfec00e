// Package importer reads guest lists from uploaded spreadsheets.
package importer

import (
	"errors"                         // For sentinel errors
	"fmt"                            // For error wrapping
	"io"                             // Upload stream
	"shaadi_planner/internal/domain" // Gender normalisation
	"strings"                        // Header and cell cleanup

	"github.com/xuri/excelize/v2" // Excel workbook reader
)

// ErrNoGuests is returned when no row carries a guest name.
var ErrNoGuests = errors.New("no valid guest data found in file. Make sure your columns are labeled Name and Phone")

// Row is one guest read from a sheet.
type Row struct {
	Name   string
	Mobile string
	Gender string
	Side   string
}

// Accepted header spellings per field, compared trimmed and lowercased.
var headerAliases = map[string][]string{
	"name":   {"name", "guest name", "full name", "guest"},
	"mobile": {"phone", "mobile", "contact", "phone number", "mobile number", "whatsapp", "phone no", "mobile no"},
	"gender": {"gender", "sex"},
	"side":   {"side", "family side"},
}

// columns maps field names to column indexes in the header row.
type columns map[string]int

func matchHeader(header []string) columns {
	cols := columns{}
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell)) // Compare headers loosely
		for field, aliases := range headerAliases {
			if _, taken := cols[field]; taken {
				continue // First matching column wins
			}
			for _, a := range aliases {
				if h == a {
					cols[field] = i
				}
			}
		}
	}
	return cols
}

func (c columns) value(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRows applies the column heuristics to raw sheet rows. The first
// non-empty row is the header.
func ParseRows(rows [][]string) ([]Row, error) {
	start := -1 // Index of the header row
	for i, row := range rows {
		if !isBlank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoGuests
	}
	cols := matchHeader(rows[start])
	if _, ok := cols["name"]; !ok {
		return nil, ErrNoGuests // Without a name column nothing can be imported
	}

	var out []Row
	for _, row := range rows[start+1:] {
		name := cols.value(row, "name")
		if name == "" {
			continue // Skip rows without a guest name
		}
		out = append(out, Row{
			Name:   name,
			Mobile: cleanPhone(cols.value(row, "mobile")),
			Gender: domain.NormalizeGender(cols.value(row, "gender")),
			Side:   cols.value(row, "side"),
		})
	}
	if len(out) == 0 {
		return nil, ErrNoGuests
	}
	return out, nil
}

// ReadXLSX parses the first sheet of an xlsx workbook.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r) // Parse the workbook from the upload
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close() // Release temp files held by excelize

	sheets := f.GetSheetList() // Only the first sheet is read
	if len(sheets) == 0 {
		return nil, ErrNoGuests
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return ParseRows(rows)
}

// cleanPhone drops the ".0" suffix numeric cells pick up when formatted.
func cleanPhone(s string) string {
	return strings.TrimSuffix(s, ".0")
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
