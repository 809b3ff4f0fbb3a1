package strtab

import "testing"

func TestTableLookup(t *testing.T) {
	tab := NewTable([]string{"CLBLL_L", "SLICE_X0Y0", "A6LUT"})

	if got := tab.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	for i, want := range []string{"CLBLL_L", "SLICE_X0Y0", "A6LUT"} {
		s, ok := tab.Lookup(ID(i))
		if !ok || s != want {
			t.Errorf("Lookup(%d) = %q, %v, want %q, true", i, s, ok, want)
		}
	}
	if _, ok := tab.Lookup(ID(3)); ok {
		t.Error("Lookup past the end should report false")
	}
	if _, ok := tab.Lookup(NoID); ok {
		t.Error("Lookup(NoID) should report false")
	}
}

func TestTableIDOf(t *testing.T) {
	tab := NewTable([]string{"wire0", "wire1"})

	id, ok := tab.IDOf("wire1")
	if !ok || id != 1 {
		t.Errorf("IDOf(wire1) = %d, %v, want 1, true", id, ok)
	}
	if _, ok := tab.IDOf("missing"); ok {
		t.Error("IDOf should report false for an unknown string")
	}
}

func TestTableZeroIsRegularEntry(t *testing.T) {
	// Database string sections index from 0: entry 0 is a real name, not a
	// reserved sentinel.
	tab := NewTable([]string{"GND"})
	if s, ok := tab.Lookup(0); !ok || s != "GND" {
		t.Fatalf("Lookup(0) = %q, %v, want GND, true", s, ok)
	}
}

func TestTableCopiesInput(t *testing.T) {
	list := []string{"a", "b"}
	tab := NewTable(list)
	list[0] = "mutated"
	if s := tab.MustLookup(0); s != "a" {
		t.Errorf("table aliases caller slice: got %q", s)
	}

	snap := tab.Snapshot()
	snap[1] = "mutated"
	if s := tab.MustLookup(1); s != "b" {
		t.Errorf("snapshot aliases table storage: got %q", s)
	}
}

func TestTableMustLookupPanics(t *testing.T) {
	tab := NewTable(nil)
	defer func() {
		if recover() == nil {
			t.Error("MustLookup on an empty table should panic")
		}
	}()
	tab.MustLookup(0)
}
