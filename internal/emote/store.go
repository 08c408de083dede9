package emote

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
)

// ErrNoTable is returned when merging into a provider that has no name table.
var ErrNoTable = errors.New("provider has no emote table")

// Matcher recognizes whole tokens that are emote names. It is built from the
// key set of one table state and never changes afterwards.
type Matcher struct {
	names map[string]struct{}
}

func newMatcher(table map[string]string) *Matcher {
	names := make(map[string]struct{}, len(table))
	for name := range table {
		names[name] = struct{}{}
	}
	return &Matcher{names: names}
}

// Match reports whether token is exactly one of the names.
func (m *Matcher) Match(token string) bool {
	if m == nil {
		return false
	}
	_, ok := m.names[token]
	return ok
}

// snapshot pairs a table with the matcher compiled from it. Both are read-only
// once published.
type snapshot struct {
	table   map[string]string
	matcher *Matcher
}

var emptySnapshot = &snapshot{table: map[string]string{}, matcher: newMatcher(nil)}

type providerTable struct {
	mu   sync.Mutex // serializes merges
	snap atomic.Pointer[snapshot]
}

// Store holds the name tables of the catalog providers. Readers never block
// and always see a table together with the matcher built from it.
type Store struct {
	tables map[Provider]*providerTable
}

// NewStore creates empty tables for every catalog provider.
func NewStore() *Store {
	s := &Store{tables: make(map[Provider]*providerTable, len(CatalogProviders))}
	for _, p := range CatalogProviders {
		t := &providerTable{}
		t.snap.Store(emptySnapshot)
		s.tables[p] = t
	}
	return s
}

// Merge folds entries into the provider's table, later duplicates winning,
// and rebuilds its matcher. Existing names are never removed.
func (s *Store) Merge(p Provider, entries []Entry) (int, error) {
	t, ok := s.tables[p]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoTable, p)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	old := t.snap.Load()
	if len(entries) == 0 {
		return len(old.table), nil
	}
	table := make(map[string]string, len(old.table)+len(entries))
	maps.Copy(table, old.table)
	for _, e := range entries {
		table[e.Name] = e.ID
	}
	t.snap.Store(&snapshot{table: table, matcher: newMatcher(table)})
	return len(table), nil
}

// Table returns a copy of the provider's current table.
func (s *Store) Table(p Provider) map[string]string {
	return maps.Clone(s.snapshot(p).table)
}

// Len returns the number of names in the provider's table.
func (s *Store) Len(p Provider) int {
	return len(s.snapshot(p).table)
}

// Lookup returns the identifier for name in the provider's table.
func (s *Store) Lookup(p Provider, name string) (string, bool) {
	id, ok := s.snapshot(p).table[name]
	return id, ok
}

func (s *Store) snapshot(p Provider) *snapshot {
	t, ok := s.tables[p]
	if !ok {
		return emptySnapshot
	}
	return t.snap.Load()
}
