package statement

import "strings"

// SplitColumns tokenizes one CSV line. A double quote toggles quoted mode
// and is never part of the field; a comma splits only outside quotes.
// Doubled quotes are not treated as escapes.
func SplitColumns(line string) []string {
	var (
		cols     []string
		field    strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			cols = append(cols, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	return append(cols, field.String())
}
