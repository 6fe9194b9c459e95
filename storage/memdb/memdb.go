// Package memdb is an in-memory store used by the development backend.
package memdb

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate id")
)

// Table holds rows of type T keyed by id, in insertion order.
type Table[T any] struct {
	mu     sync.RWMutex
	rows   map[string]T
	order  []string
	pk     int
	idOf   func(T) string
	withID func(T, string) T
}

// NewTable returns an empty table. idOf reads the id of a row; withID returns the row carrying id.
func NewTable[T any](idOf func(T) string, withID func(T, string) T) *Table[T] {
	return &Table[T]{
		rows:   make(map[string]T),
		idOf:   idOf,
		withID: withID,
	}
}

// Insert stores row. Rows without an id get the next numeric id.
func (t *Table[T]) Insert(row T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.idOf(row)
	if id == "" {
		t.pk++
		id = strconv.Itoa(t.pk)
		row = t.withID(row, id)
	} else if n, err := strconv.Atoi(id); err == nil && n > t.pk {
		t.pk = n
	}
	if _, exists := t.rows[id]; exists {
		return row, errors.Wrap(ErrDuplicate, id)
	}
	t.rows[id] = row
	t.order = append(t.order, id)
	return row, nil
}

// All returns every row in insertion order.
func (t *Table[T]) All() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]T, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, t.rows[id])
	}
	return rows
}

func (t *Table[T]) Get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return row, ErrNotFound
	}
	return row, nil
}

// Update replaces the row identified by id with fn applied to it.
func (t *Table[T]) Update(id string, fn func(T) T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return row, ErrNotFound
	}
	row = t.withID(fn(row), id)
	t.rows[id] = row
	return row, nil
}

func (t *Table[T]) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Record is a schemaless row as decoded from JSON.
type Record map[string]interface{}

// ID returns the record id as a string; JSON numbers are formatted without decimals.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// Merge returns a copy of r overlaid with the fields of patch.
func (r Record) Merge(patch Record) Record {
	out := make(Record, len(r)+len(patch))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func recordWithID(r Record, id string) Record {
	out := r.Merge(nil)
	if n, err := strconv.Atoi(id); err == nil {
		out["id"] = n
	} else {
		out["id"] = id
	}
	return out
}

// NewRecords returns a table of schemaless records with numeric ids.
func NewRecords() *Table[Record] {
	return NewTable(Record.ID, recordWithID)
}

// DB groups record tables by resource name.
type DB struct {
	mu     sync.Mutex
	tables map[string]*Table[Record]
}

func Open(resources ...string) *DB {
	db := &DB{tables: make(map[string]*Table[Record], len(resources))}
	for _, name := range resources {
		db.tables[name] = NewRecords()
	}
	return db
}

// Table returns the table of resource name and whether it exists.
func (db *DB) Table(name string) (*Table[Record], bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	tbl, ok := db.tables[name]
	return tbl, ok
}
