// Package store defines the row-store capability the breeding subsystem
// relies on: filtered selects plus single-row insert/update/delete. Concrete
// backends live in the subpackages; services receive the interface so tests
// can inject the in-memory fake.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Update when no row matches the filter.
var ErrNotFound = errors.New("row not found")

// Table names consumed by the breeding subsystem.
const (
	TableAnimals        = "animals"
	TableBreedingEvents = "breeding_events"
	TableBreedingConfig = "breeding_config"
	TableReminders      = "reminders"
)

// Op enumerates the comparison operators supported by Select filters.
type Op string

const (
	OpEq    Op = "eq"
	OpGte   Op = "gte"
	OpLte   Op = "lte"
	OpLike  Op = "like"
	OpILike Op = "ilike"
)

// Filter constrains one field of a Select.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query bundles the filters, ordering and paging of a Select.
type Query struct {
	Filters   []Filter
	OrderBy   string
	Ascending bool
	Limit     int
	Offset    int
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Store is the datastore boundary. Rows travel as loosely typed maps; the
// domain models own the decoding.
type Store interface {
	Select(ctx context.Context, table string, q Query) ([]map[string]any, error)
	Insert(ctx context.Context, table string, row map[string]any) (map[string]any, error)
	Update(ctx context.Context, table, matchField string, matchValue any, patch map[string]any) (map[string]any, error)
	Delete(ctx context.Context, table, matchField string, matchValue any) error
}
