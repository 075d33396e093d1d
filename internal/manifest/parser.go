// Package manifest parses the CSV manifest inside a release bundle and
// maps its rows to catalog tracks.
//
// The parser is deliberately small rather than a full RFC 4180 reader:
// label exports put commas inside quoted fields but never escape quotes,
// so a quote-toggling scan matches what those tools emit. Values and
// headers are trimmed, and headers lose surrounding quotes.
package manifest

import "strings"

// Row maps a header name to the value in one data line. Headers absent
// from a short line are present with an empty value.
type Row map[string]string

// Parse splits CSV text into rows. Fewer than two lines (header plus at
// least one data line) yields no rows.
func Parse(text string) []Row {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return nil
	}

	headers := splitHeader(lines[0])
	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitLine(strings.TrimSuffix(line, "\r"))
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(values) {
				row[header] = values[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func splitHeader(line string) []string {
	parts := strings.Split(strings.TrimSuffix(line, "\r"), ",")
	headers := make([]string, len(parts))
	for i, part := range parts {
		headers[i] = strings.Trim(strings.TrimSpace(part), `"`)
	}
	return headers
}

// splitLine walks the line once, toggling quote state. Quote characters
// are consumed, commas inside quotes are literal.
func splitLine(line string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inQuotes = !inQuotes
		case line[i] == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(line[i])
		}
	}
	values = append(values, strings.TrimSpace(current.String()))
	return values
}

// Get returns the first alias present in the row with a non-empty value.
func Get(row Row, aliases ...string) string {
	for _, alias := range aliases {
		if value, ok := row[alias]; ok && value != "" {
			return value
		}
	}
	return ""
}
