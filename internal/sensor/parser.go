package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLine converts one raw telemetry line into its numeric fields.
// The board sends semicolon-delimited ASCII floats terminated by CRLF,
// e.g. "50;300". Parsing is all-or-nothing: an empty line or any
// non-numeric field fails the whole line, never a partial result.
func ParseLine(raw []byte) ([]float64, error) {
	line := strings.TrimRight(string(raw), "\r\n")
	if line == "" {
		return nil, fmt.Errorf("empty line")
	}
	parts := strings.Split(line, ";")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("field %q is not numeric: %w", part, err)
		}
		values = append(values, v)
	}
	return values, nil
}
