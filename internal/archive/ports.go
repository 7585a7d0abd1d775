// Package archive keeps the raw bytes of imported statements so a run can
// be inspected or replayed later.
package archive

import (
	"context"
	"path"
	"strings"
	"time"
)

// StatementArchiver stores one uploaded statement and returns where it went.
type StatementArchiver interface {
	Store(ctx context.Context, runID, filename string, data []byte) (ref string, err error)
}

// ObjectName is the key a statement is stored under:
// statements/YYYY/MM/<run id>-<base name>.
func ObjectName(runID, filename string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "statement.csv"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	return path.Join("statements", at.UTC().Format("2006/01"), runID+"-"+base)
}
