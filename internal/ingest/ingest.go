// Package ingest reads an uploaded delimited file into a header-keyed
// table, resolving the character encoding by ordered fallback.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// RawRecord is one row of the uploaded table exactly as read, keyed by the
// original column headers. It only lives until column mapping.
type RawRecord map[string]string

// Table is the parsed upload: the original header row plus every data row
// in file order.
type Table struct {
	Headers []string
	Rows    []RawRecord
}

// ParseError is a terminal failure to read the upload as tabular data.
// Message is user-presentable; Tried lists the encodings attempted.
type ParseError struct {
	Message string
	Tried   []string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Cause }

// DecodeTable decodes raw upload bytes using the first candidate encoding
// that yields well-formed text, then parses that text as CSV, returning the
// table and the name of the encoding that succeeded. Once an encoding
// accepts the bytes, a CSV failure is structural and reported as such
// rather than blamed on the encoding. The input is held in memory only;
// nothing is written to durable storage.
func DecodeTable(data []byte, encodings []string) (*Table, string, error) {
	if len(data) == 0 {
		return nil, "", &ParseError{Message: "File is empty. Please upload a valid CSV."}
	}

	var lastErr error
	for _, name := range encodings {
		text, err := decode(data, name)
		if err != nil {
			lastErr = err
			continue
		}

		table, err := parseCSV(text)
		if err != nil {
			return nil, "", &ParseError{
				Message: "Could not parse the file as CSV. Check the file for inconsistent rows or stray delimiters.",
				Tried:   encodings,
				Cause:   err,
			}
		}
		if len(table.Rows) == 0 {
			return nil, "", &ParseError{
				Message: "File contains no transaction rows. Please upload a CSV with at least one data row.",
				Tried:   encodings,
			}
		}
		return table, name, nil
	}

	return nil, "", &ParseError{
		Message: fmt.Sprintf("File encoding not recognized. Tried: %s. Please re-export the file as UTF-8 CSV.",
			strings.Join(encodings, ", ")),
		Tried: encodings,
		Cause: lastErr,
	}
}

// decode converts raw bytes to a string under the named encoding. UTF-8 is
// validated strictly so that mis-encoded files fall through to the
// single-byte candidates instead of producing replacement runes.
func decode(data []byte, name string) (string, error) {
	switch normalizeEncodingName(name) {
	case "utf-8":
		trimmed := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		if !utf8.Valid(trimmed) {
			return "", fmt.Errorf("decode: input is not valid UTF-8")
		}
		return string(trimmed), nil
	case "iso-8859-1":
		return decodeCharmap(data, charmap.ISO8859_1)
	case "windows-1252":
		return decodeCharmap(data, charmap.Windows1252)
	default:
		return "", fmt.Errorf("decode: unsupported encoding %q", name)
	}
}

func decodeCharmap(data []byte, cm *charmap.Charmap) (string, error) {
	var dec *encoding.Decoder = cm.NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", cm.String(), err)
	}
	return string(out), nil
}

func normalizeEncodingName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "utf8":
		return "utf-8"
	case "latin-1", "latin1":
		return "iso-8859-1"
	case "cp1252":
		return "windows-1252"
	}
	return name
}

// parseCSV reads decoded text into a Table. The first record is the header
// row; every following record must have the same field count.
func parseCSV(text string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parseCSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parseCSV: no header row")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]RawRecord, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(RawRecord, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}
