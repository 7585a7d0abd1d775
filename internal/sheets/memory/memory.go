package memory

import (
	"context"
	"fmt"
	"sync"

	"planner/internal/core"
	ports "planner/internal/sheets"
)

// Exporter keeps exported rows in memory. The worker uses it when no
// spreadsheet is configured so exports stay observable in logs and tests.
type Exporter struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

var _ ports.CashflowExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// FailWith makes every later Export return err. Pass nil to recover.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Export stores the rows and returns a synthetic range reference.
func (e *Exporter) Export(_ context.Context, items []core.Cashflow) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	if len(items) == 0 {
		return "", nil
	}
	first := len(e.rows) + 1
	for _, c := range items {
		e.rows = append(e.rows, ports.Row(c))
	}
	return fmt.Sprintf("mem:%d-%d", first, len(e.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
