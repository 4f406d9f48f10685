package names

import (
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads the two-line names format: people on line 1, companies on
// line 2, comma separated. There is no quoting; lines after the second are
// ignored.
func ParseCSV(data []byte) (List, error) {
	lines := splitLines(string(data))
	if len(lines) < 2 {
		return List{}, ErrMalformedCSV
	}
	return List{
		People:    ParseCommaList(lines[0]),
		Companies: ParseCommaList(lines[1]),
	}, nil
}

// ReadCSV is ParseCSV over a reader.
func ReadCSV(r io.Reader) (List, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return List{}, fmt.Errorf("failed to read names csv: %w", err)
	}
	return ParseCSV(data)
}

// FormatCSV renders l in the two-line format. Both lines are always present.
func FormatCSV(l List) string {
	return strings.Join(l.People, ",") + "\n" + strings.Join(l.Companies, ",") + "\n"
}

// WriteCSV writes FormatCSV(l) to w.
func WriteCSV(w io.Writer, l List) error {
	if _, err := io.WriteString(w, FormatCSV(l)); err != nil {
		return fmt.Errorf("failed to write names csv: %w", err)
	}
	return nil
}

// splitLines behaves like a line reader: each line keeps no terminator and a
// trailing newline does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
