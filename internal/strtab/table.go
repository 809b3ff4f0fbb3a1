package strtab

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// ID is an index into one string table. The device and netlist databases
// intern their strings independently, so an ID is only meaningful against
// the table it was minted by; use a CrossMap to move between the two spaces.
type ID uint32

// NoID marks an absent string reference.
const NoID ID = ^ID(0)

// Table is an immutable interned string list, built once from a database
// string section. IDs are the plain 0-based positions used by the database,
// so entry 0 is a regular string, not a sentinel.
type Table struct {
	byID  []string
	index map[string]ID
}

// NewTable builds a table over the given list. The list is copied; later
// mutation of the argument does not affect the table. Databases do not emit
// duplicate strings, but if one appears the first occurrence wins.
func NewTable(list []string) *Table {
	t := &Table{
		byID:  slices.Clone(list),
		index: make(map[string]ID, len(list)),
	}
	for i, s := range t.byID {
		id, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("string table overflow: %w", err))
		}
		if _, ok := t.index[s]; !ok {
			t.index[s] = ID(id)
		}
	}
	return t
}

// Lookup returns the string for id.
func (t *Table) Lookup(id ID) (string, bool) {
	if !t.Has(id) {
		return "", false
	}
	return t.byID[id], true
}

// MustLookup panics when id is not part of the table.
func (t *Table) MustLookup(id ID) string {
	s, ok := t.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("strtab: invalid ID %d", id))
	}
	return s
}

// IDOf returns the ID interned for s.
func (t *Table) IDOf(s string) (ID, bool) {
	id, ok := t.index[s]
	return id, ok
}

// Has reports whether id names an entry of the table.
func (t *Table) Has(id ID) bool {
	return id != NoID && int(id) < len(t.byID)
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	return len(t.byID)
}

// Snapshot returns a copy of the backing list in ID order.
func (t *Table) Snapshot() []string {
	return slices.Clone(t.byID)
}
