// Package provenance records where every aggregated value came from.
package provenance

import (
	"errors"
	"strings"
	"sync"

	"github.com/Veraticus/oic-ledger/internal/model"
)

// ErrClosed is returned when appending to a finalized log.
var ErrClosed = errors.New("provenance log is closed")

// Log is an append-only list of provenance entries.
// Reads return copies so callers cannot rewrite history.
type Log struct {
	entries []model.ProvenanceEntry
	mu      sync.RWMutex
	closed  bool
}

// NewLog returns an empty, open log.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry. It fails with ErrClosed once the log is closed.
func (l *Log) Append(entry model.ProvenanceEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Close finalizes the log. Closing twice is harmless.
func (l *Log) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// Closed reports whether the log accepts appends.
func (l *Log) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns every entry in append order.
func (l *Log) Entries() []model.ProvenanceEntry {
	return l.filter(func(model.ProvenanceEntry) bool { return true })
}

// ForField returns the entries recorded for an exact field path.
func (l *Log) ForField(path string) []model.ProvenanceEntry {
	return l.filter(func(e model.ProvenanceEntry) bool { return e.FieldPath == path })
}

// WithPrefix returns the entries whose field path starts with prefix,
// e.g. "bank_account." or "utilities.".
func (l *Log) WithPrefix(prefix string) []model.ProvenanceEntry {
	return l.filter(func(e model.ProvenanceEntry) bool { return strings.HasPrefix(e.FieldPath, prefix) })
}

// ForFile returns the entries recorded from one source document.
func (l *Log) ForFile(file string) []model.ProvenanceEntry {
	return l.filter(func(e model.ProvenanceEntry) bool { return e.SourceFile == file })
}

// MeanConfidence averages entry confidence, 0 for an empty log.
func (l *Log) MeanConfidence() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return 0
	}
	var total float64
	for _, e := range l.entries {
		total += e.Confidence
	}
	return total / float64(len(l.entries))
}

func (l *Log) filter(keep func(model.ProvenanceEntry) bool) []model.ProvenanceEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.ProvenanceEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
