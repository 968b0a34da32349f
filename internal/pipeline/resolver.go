package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"salebook/internal"
)

// SearchFunc finds candidates for a free-text query.
type SearchFunc[T any] func(ctx context.Context, query string) ([]T, error)

// CreateFunc creates a missing canonical record under the given name.
type CreateFunc[T any] func(ctx context.Context, name string) (T, error)

// resettable lets slots of different entity kinds participate in cascading
// invalidation without knowing each other's type parameter.
type resettable interface {
	Reset()
}

// Slot resolves one entity selection from free text. Queries are debounced
// and superseded: every new query bumps a sequence number and only a response
// carrying the current sequence may touch state, so a slow stale search can
// never repopulate a slot that was cleared or re-queried meanwhile.
//
// If a search returns exactly one candidate while nothing is selected, that
// candidate is selected automatically. Zero candidates for a non-empty query
// leave the slot open for CreateMissing.
type Slot[T any] struct {
	mu          sync.Mutex
	kind        internal.EntityKind
	debounce    time.Duration
	search      SearchFunc[T]
	create      CreateFunc[T]
	key         func(T) int64
	invalidates []resettable

	seq       uint64
	timer     *time.Timer
	pending   bool
	selected  *T
	options   []T
	lastQuery string
	lastErr   error
}

func NewSlot[T any](kind internal.EntityKind, debounce time.Duration, key func(T) int64, search SearchFunc[T], create CreateFunc[T]) *Slot[T] {
	return &Slot[T]{kind: kind, debounce: debounce, key: key, search: search, create: create}
}

// Invalidates registers slots cleared whenever this slot's selection changes.
// The dependency graph must stay acyclic.
func (s *Slot[T]) Invalidates(deps ...resettable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidates = append(s.invalidates, deps...)
}

// SetQuery records the query and schedules a debounced search. A newer call
// supersedes any in-flight one.
func (s *Slot[T]) SetQuery(ctx context.Context, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = query
	s.seq++
	seq := s.seq
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.debounce <= 0 {
		go s.runSearch(ctx, seq, query)
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.runSearch(ctx, seq, query)
	})
}

// ResolveNow runs the search synchronously, bypassing the debounce. Used by
// batch reconciliation and tests.
func (s *Slot[T]) ResolveNow(ctx context.Context, query string) ([]T, error) {
	s.mu.Lock()
	s.lastQuery = query
	s.seq++
	seq := s.seq
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.runSearch(ctx, seq, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	return append([]T(nil), s.options...), nil
}

func (s *Slot[T]) runSearch(ctx context.Context, seq uint64, query string) {
	if strings.TrimSpace(query) == "" {
		s.mu.Lock()
		if seq == s.seq {
			s.options = nil
			s.pending = false
			s.lastErr = nil
		}
		s.mu.Unlock()
		return
	}

	results, err := s.search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return // superseded
	}
	s.pending = false
	if err != nil {
		if _, ok := err.(*internal.ConfigurationError); !ok {
			if _, ok := err.(*internal.TransientSearchError); !ok {
				err = &internal.TransientSearchError{Kind: s.kind, Err: err}
			}
		}
		s.lastErr = err
		return // selection state untouched
	}
	s.lastErr = nil
	s.options = results
	if len(results) == 1 && s.selected == nil {
		s.selectLocked(results[0])
	}
}

// Select applies an explicit choice and clears dependent slots.
func (s *Slot[T]) Select(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectLocked(v)
}

func (s *Slot[T]) selectLocked(v T) {
	s.selected = &v
	for _, dep := range s.invalidates {
		dep.Reset()
	}
}

// Clear drops the selection but keeps the last query and options. Dependent
// slots are reset synchronously before any further search can land.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	for _, dep := range s.invalidates {
		dep.Reset()
	}
}

// Reset returns the slot to its initial state and cascades to dependents.
// The sequence bump guarantees in-flight responses are discarded.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = false
	s.selected = nil
	s.options = nil
	s.lastQuery = ""
	s.lastErr = nil
	for _, dep := range s.invalidates {
		dep.Reset()
	}
}

// CreateMissing creates a record named after the last query, selects it, and
// re-issues the search so the new record is visible in the options.
func (s *Slot[T]) CreateMissing(ctx context.Context) (T, error) {
	var zero T
	s.mu.Lock()
	query := strings.TrimSpace(s.lastQuery)
	s.mu.Unlock()
	if query == "" {
		return zero, fmt.Errorf("create %s: no query to create from", s.kind)
	}
	if s.create == nil {
		return zero, fmt.Errorf("create %s: not supported", s.kind)
	}

	created, err := s.create(ctx, query)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	s.seq++
	s.pending = false
	s.lastErr = nil
	s.selectLocked(created)
	s.mu.Unlock()

	if results, err := s.search(ctx, query); err == nil {
		s.mu.Lock()
		s.options = results
		s.mu.Unlock()
	}
	return created, nil
}

// Selected returns a copy of the current selection, or nil.
func (s *Slot[T]) Selected() *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	v := *s.selected
	return &v
}

func (s *Slot[T]) Options() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.options...)
}

// Pending reports an in-flight resolution; the validator treats it as "not
// yet resolved", never as a failure.
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Slot[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// MultiSlot is the multi-select variant used for catalogs: selections append
// to a set, duplicates are rejected, removal is by identity. Auto-select-one
// applies only while the set is still empty.
type MultiSlot[T any] struct {
	mu          sync.Mutex
	kind        internal.EntityKind
	key         func(T) int64
	search      SearchFunc[T]
	create      CreateFunc[T]
	invalidates []resettable

	seq       uint64
	pending   bool
	selected  []T
	options   []T
	lastQuery string
	lastErr   error
}

func NewMultiSlot[T any](kind internal.EntityKind, key func(T) int64, search SearchFunc[T], create CreateFunc[T]) *MultiSlot[T] {
	return &MultiSlot[T]{kind: kind, key: key, search: search, create: create}
}

func (m *MultiSlot[T]) Invalidates(deps ...resettable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidates = append(m.invalidates, deps...)
}

// ResolveNow searches synchronously and auto-selects a sole result when the
// set is empty.
func (m *MultiSlot[T]) ResolveNow(ctx context.Context, query string) ([]T, error) {
	m.mu.Lock()
	m.lastQuery = query
	m.seq++
	seq := m.seq
	m.pending = true
	m.mu.Unlock()

	results, err := m.search(ctx, query)

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return nil, nil
	}
	m.pending = false
	if err != nil {
		if _, ok := err.(*internal.ConfigurationError); !ok {
			if _, ok := err.(*internal.TransientSearchError); !ok {
				err = &internal.TransientSearchError{Kind: m.kind, Err: err}
			}
		}
		m.lastErr = err
		return nil, err
	}
	m.lastErr = nil
	m.options = results
	if len(results) == 1 && len(m.selected) == 0 {
		m.addLocked(results[0])
	}
	return append([]T(nil), results...), nil
}

// Add appends to the selection set; duplicates by identity are rejected.
func (m *MultiSlot[T]) Add(v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(v)
}

func (m *MultiSlot[T]) addLocked(v T) error {
	id := m.key(v)
	for _, existing := range m.selected {
		if m.key(existing) == id {
			return fmt.Errorf("%s %d already selected", m.kind, id)
		}
	}
	m.selected = append(m.selected, v)
	for _, dep := range m.invalidates {
		dep.Reset()
	}
	return nil
}

// Remove drops a selection by identity and cascades invalidation.
func (m *MultiSlot[T]) Remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.selected[:0]
	removed := false
	for _, v := range m.selected {
		if m.key(v) == id {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	m.selected = kept
	if removed {
		for _, dep := range m.invalidates {
			dep.Reset()
		}
	}
}

// CreateMissing creates a record from the last query, adds it to the set, and
// re-issues the search so subsequent lookups see the new record.
func (m *MultiSlot[T]) CreateMissing(ctx context.Context) (T, error) {
	var zero T
	m.mu.Lock()
	query := strings.TrimSpace(m.lastQuery)
	m.mu.Unlock()
	if query == "" {
		return zero, fmt.Errorf("create %s: no query to create from", m.kind)
	}
	if m.create == nil {
		return zero, fmt.Errorf("create %s: not supported", m.kind)
	}

	created, err := m.create(ctx, query)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	m.seq++
	m.pending = false
	m.lastErr = nil
	_ = m.addLocked(created)
	m.mu.Unlock()

	if results, err := m.search(ctx, query); err == nil {
		m.mu.Lock()
		m.options = results
		m.mu.Unlock()
	}
	return created, nil
}

func (m *MultiSlot[T]) Selected() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.selected...)
}

func (m *MultiSlot[T]) SelectedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, 0, len(m.selected))
	for _, v := range m.selected {
		out = append(out, m.key(v))
	}
	return out
}

func (m *MultiSlot[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending = false
	m.selected = nil
	m.options = nil
	m.lastQuery = ""
	m.lastErr = nil
	for _, dep := range m.invalidates {
		dep.Reset()
	}
}

func (m *MultiSlot[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}
