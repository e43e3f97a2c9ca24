package bankformat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Narayana221/FinanceApp/internal/ingest"
)

// Mapping is the resolved correspondence between canonical fields and the
// original column headers of one upload. Built once per upload; immutable.
type Mapping struct {
	// Format is the known layout name, or "auto-detected".
	Format string
	// Columns maps canonical fields to the original header spelling.
	// Date and Amount are always present; Description and Category may
	// be absent.
	Columns map[Field]string
}

// Header returns the original header for a canonical field, or "" when the
// upload has no column for it.
func (m Mapping) Header(f Field) string { return m.Columns[f] }

// DetectError is a terminal failure to locate the required columns.
type DetectError struct {
	Missing []Field
}

func (e *DetectError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf(
		"Unable to detect required columns (%s). Expected columns like Date, Description, Amount (e.g. 25/12/2024, Tesco, -45.30). Please check the file format.",
		strings.Join(names, ", "))
}

// Detect resolves a column mapping for the table: first by matching the
// header set against the known layouts in order, then by inspecting column
// contents. It fails only when no Date or Amount column can be found.
func Detect(table *ingest.Table, layouts []Layout) (Mapping, error) {
	byLower := make(map[string]string, len(table.Headers))
	for _, h := range table.Headers {
		byLower[strings.ToLower(strings.TrimSpace(h))] = h
	}

	for _, layout := range layouts {
		if m, ok := matchLayout(layout, byLower); ok {
			return m, nil
		}
	}

	return inferMapping(table)
}

// matchLayout succeeds when every header the layout requires is present
// (case-insensitive); extra columns in the upload are ignored.
func matchLayout(layout Layout, byLower map[string]string) (Mapping, bool) {
	columns := make(map[Field]string, len(layout.Columns))
	for lower, field := range layout.Columns {
		original, ok := byLower[lower]
		if !ok {
			return Mapping{}, false
		}
		columns[field] = original
	}

	// Some exports carry both a short merchant name and a fuller
	// description column; prefer the more detailed one.
	if columns[FieldDescription] != "" && !strings.EqualFold(columns[FieldDescription], "description") {
		if original, ok := byLower["description"]; ok {
			columns[FieldDescription] = original
		}
	}

	return Mapping{Format: layout.Name, Columns: columns}, true
}

var (
	dateSlash = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	dateISO   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	dateDash  = regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{4}`)

	amountSymbols = strings.NewReplacer(",", "", "£", "", "$", "", "€", "", " ", "")
)

const (
	sampleSize     = 10
	matchThreshold = 0.7
)

// inferMapping assigns column roles by content when no known layout fits.
func inferMapping(table *ingest.Table) (Mapping, error) {
	columns := make(map[Field]string, 4)
	claimed := make(map[string]bool, 4)

	for _, h := range table.Headers {
		if looksLikeDates(sampleColumn(table, h)) {
			columns[FieldDate] = h
			claimed[h] = true
			break
		}
	}

	for _, h := range table.Headers {
		if !claimed[h] && looksLikeAmounts(sampleColumn(table, h)) {
			columns[FieldAmount] = h
			claimed[h] = true
			break
		}
	}

	for _, h := range table.Headers {
		sample := sampleColumn(table, h)
		if !claimed[h] && !looksLikeDates(sample) && !looksLikeAmounts(sample) {
			columns[FieldDescription] = h
			claimed[h] = true
			break
		}
	}

	for _, h := range table.Headers {
		if !claimed[h] && headerHintsCategory(h) {
			columns[FieldCategory] = h
			break
		}
	}

	var missing []Field
	if columns[FieldDate] == "" {
		missing = append(missing, FieldDate)
	}
	if columns[FieldAmount] == "" {
		missing = append(missing, FieldAmount)
	}
	if len(missing) > 0 {
		return Mapping{}, &DetectError{Missing: missing}
	}

	return Mapping{Format: FormatAutoDetected, Columns: columns}, nil
}

// sampleColumn returns up to sampleSize non-empty values from the column.
func sampleColumn(table *ingest.Table, header string) []string {
	var sample []string
	for _, row := range table.Rows {
		v := strings.TrimSpace(row[header])
		if v == "" {
			continue
		}
		sample = append(sample, v)
		if len(sample) == sampleSize {
			break
		}
	}
	return sample
}

func looksLikeDates(sample []string) bool {
	if len(sample) == 0 {
		return false
	}
	matches := 0
	for _, v := range sample {
		if dateSlash.MatchString(v) || dateISO.MatchString(v) || dateDash.MatchString(v) {
			matches++
		}
	}
	return float64(matches)/float64(len(sample)) >= matchThreshold
}

func looksLikeAmounts(sample []string) bool {
	if len(sample) == 0 {
		return false
	}
	numeric := 0
	for _, v := range sample {
		cleaned := amountSymbols.Replace(strings.TrimSpace(v))
		if _, err := strconv.ParseFloat(cleaned, 64); err == nil {
			numeric++
		}
	}
	return float64(numeric)/float64(len(sample)) >= matchThreshold
}

func headerHintsCategory(header string) bool {
	h := strings.ToLower(header)
	return strings.Contains(h, "category") || strings.Contains(h, "type") || strings.Contains(h, "tag")
}
