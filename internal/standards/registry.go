package standards

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
)

// Registry holds every known standards version.
type Registry struct {
	tables map[string]*Table
	mu     sync.RWMutex
}

// NewRegistry returns a registry holding the built-in table.
func NewRegistry() *Registry {
	r := &Registry{tables: make(map[string]*Table)}
	b := Builtin()
	r.tables[b.Version] = b
	return r
}

// Register adds a table, replacing any table with the same version.
func (r *Registry) Register(t *Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.Version] = t
}

// LoadFile parses a YAML table from disk and registers it.
func (r *Registry) LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-configured
	if err != nil {
		return nil, fmt.Errorf("failed to read standards file %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("standards file %s: %w", path, err)
	}
	r.Register(t)
	return t, nil
}

// Lookup returns the table for a version. An empty version means Current.
func (r *Registry) Lookup(version string) (*Table, error) {
	if version == "" {
		return r.Current(), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownStandards, version)
	}
	return t, nil
}

// Current returns the table with the latest effective date.
func (r *Registry) Current() *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var current *Table
	for _, t := range r.tables {
		if current == nil || t.Effective.After(current.Effective) ||
			(t.Effective.Equal(current.Effective) && t.Version > current.Version) {
			current = t
		}
	}
	return current
}

// ForDate returns the table in effect on a date, falling back to Current.
func (r *Registry) ForDate(at time.Time) *Table {
	r.mu.RLock()
	for _, v := range r.versionsLocked() {
		if t := r.tables[v]; t.InEffect(at) {
			r.mu.RUnlock()
			return t
		}
	}
	r.mu.RUnlock()
	return r.Current()
}

// Versions lists registered versions in sorted order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.versionsLocked()
}

func (r *Registry) versionsLocked() []string {
	versions := make([]string, 0, len(r.tables))
	for v := range r.tables {
		versions = append(versions, v)
	}
	return sortedStrings(versions)
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
