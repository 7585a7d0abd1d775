package archive

import (
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		filename string
		want     string
	}{
		{"march.csv", "statements/2024/03/run1-march.csv"},
		{"../../etc/passwd", "statements/2024/03/run1-passwd"},
		{`C:\Users\me\bank export.csv`, "statements/2024/03/run1-bank_export.csv"},
		{"", "statements/2024/03/run1-statement.csv"},
	}
	for _, tt := range tests {
		if got := ObjectName("run1", tt.filename, at); got != tt.want {
			t.Errorf("ObjectName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
