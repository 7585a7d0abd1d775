package memory

import (
	"context"
	"sync"
	"time"

	ports "planner/internal/archive"
)

// Archiver keeps statements in memory, keyed by object name.
type Archiver struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
	now     func() time.Time
}

var _ ports.StatementArchiver = (*Archiver)(nil)

func New() *Archiver {
	return &Archiver{objects: map[string][]byte{}, now: time.Now}
}

// FailWith makes every later Store return err. Pass nil to recover.
func (a *Archiver) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func (a *Archiver) Store(_ context.Context, runID, filename string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	name := ports.ObjectName(runID, filename, a.now())
	a.objects[name] = append([]byte(nil), data...)
	return "mem://" + name, nil
}

// Get returns the stored bytes for an object name.
func (a *Archiver) Get(name string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.objects[name]
	return b, ok
}

// Len reports how many statements are stored.
func (a *Archiver) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.objects)
}
