// Package memory provides an in-process store.Store used by tests and local
// development runs. It mirrors the comparison semantics of the hosted
// backend closely enough for the breeding subsystem: string ordering, which
// matches ISO dates, and %-wildcard like patterns.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/herdbook/herdbook/internal/store"
)

// Store holds rows per table, guarded by a single mutex.
type Store struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	errs   map[string]error
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		tables: map[string][]map[string]any{},
		errs:   map[string]error{},
	}
}

// FailTable makes every subsequent operation on the table return err.
// Pass nil to clear. Used by tests to exercise degraded paths.
func (s *Store) FailTable(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, table)
		return
	}
	s.errs[table] = err
}

// Select fetches rows matching the query.
func (s *Store) Select(_ context.Context, table string, q store.Query) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs[table]; err != nil {
		return nil, err
	}

	var matched []map[string]any
	for _, row := range s.tables[table] {
		if matchesAll(row, q.Filters) {
			matched = append(matched, cloneRow(row))
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a := fmt.Sprint(matched[i][q.OrderBy])
			b := fmt.Sprint(matched[j][q.OrderBy])
			if q.Ascending {
				return a < b
			}
			return a > b
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return matched, nil
}

// Insert stores one row, assigning an id when the caller did not.
func (s *Store) Insert(_ context.Context, table string, row map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs[table]; err != nil {
		return nil, err
	}

	stored := cloneRow(row)
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.NewString()
	}
	s.tables[table] = append(s.tables[table], stored)

	return cloneRow(stored), nil
}

// Update patches every row matching the field and returns the first one.
func (s *Store) Update(_ context.Context, table, matchField string, matchValue any, patch map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs[table]; err != nil {
		return nil, err
	}

	var first map[string]any
	for _, row := range s.tables[table] {
		if !fieldEquals(row, matchField, matchValue) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		if first == nil {
			first = cloneRow(row)
		}
	}
	if first == nil {
		return nil, fmt.Errorf("update %s: %s=%v: %w", table, matchField, matchValue, store.ErrNotFound)
	}

	return first, nil
}

// Delete removes every row matching the field.
func (s *Store) Delete(_ context.Context, table, matchField string, matchValue any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs[table]; err != nil {
		return err
	}

	kept := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if !fieldEquals(row, matchField, matchValue) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept

	return nil
}

// Count reports the number of rows currently stored in the table.
func (s *Store) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

func matchesAll(row map[string]any, filters []store.Filter) bool {
	for _, f := range filters {
		if !matches(row, f) {
			return false
		}
	}
	return true
}

func matches(row map[string]any, f store.Filter) bool {
	raw, ok := row[f.Field]
	if !ok {
		return false
	}
	have := fmt.Sprint(raw)
	want := fmt.Sprint(f.Value)

	switch f.Op {
	case store.OpEq:
		return have == want
	case store.OpGte:
		return have >= want
	case store.OpLte:
		return have <= want
	case store.OpLike:
		return likeMatch(have, want)
	case store.OpILike:
		return likeMatch(strings.ToLower(have), strings.ToLower(want))
	}
	return false
}

func likeMatch(value, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return value == pattern
	}

	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(value, part)
		if idx < 0 {
			return false
		}
		value = value[idx+len(part):]
	}

	return strings.HasSuffix(value, last)
}

func fieldEquals(row map[string]any, field string, value any) bool {
	raw, ok := row[field]
	if !ok {
		return false
	}
	return fmt.Sprint(raw) == fmt.Sprint(value)
}

func cloneRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
