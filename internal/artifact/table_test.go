package artifact

import "testing"

func loc(r0, r1 uint32) FunctionLoc { return FunctionLoc{Start: r0, Length: r1 - r0} }

func defKey(i uint32) Key { return Key{Namespace: DefinedWasmFunction, Index: i} }

func sparseKey(i uint32) Key { return Key{Namespace: ArrayToWasmTrampoline, Index: i} }

func makeTestTable() *Table {
	b := NewBuilder()
	b.Push(defKey(0), loc(0, 10)).
		Push(defKey(1), loc(10, 20)).
		Push(defKey(2), loc(20, 30)).
		// Gap in the dense namespace.
		Push(defKey(5), loc(30, 40)).
		Push(sparseKey(1), loc(100, 110)).
		Push(sparseKey(2), loc(110, 120)).
		Push(sparseKey(5), loc(120, 130))
	return b.Finish()
}

func TestForwardLookup(t *testing.T) {
	tbl := makeTestTable()
	cases := []struct {
		key  Key
		want uint32
		ok   bool
	}{
		{defKey(0), 0, true},
		{defKey(1), 10, true},
		{defKey(2), 20, true},
		{defKey(3), 0, false}, // in the gap
		{defKey(4), 0, false}, // in the gap
		{defKey(5), 30, true},
		{sparseKey(0), 0, false},
		{sparseKey(1), 100, true},
		{sparseKey(2), 110, true},
		{sparseKey(3), 0, false},
		{sparseKey(5), 120, true},
	}
	for _, c := range cases {
		got, ok := tbl.Loc(c.key)
		if ok != c.ok {
			t.Fatalf("Loc(%v) ok = %v, want %v", c.key, ok, c.ok)
		}
		if ok && got.Start != c.want {
			t.Fatalf("Loc(%v).Start = %d, want %d", c.key, got.Start, c.want)
		}
	}
}

func TestReverseLookup(t *testing.T) {
	tbl := makeTestTable()
	ranges := []struct {
		lo, hi uint32
		want   *Key
	}{
		{0, 10, keyPtr(defKey(0))},
		{10, 20, keyPtr(defKey(1))},
		{20, 30, keyPtr(defKey(2))},
		{30, 40, keyPtr(defKey(5))},
		{40, 100, nil}, // the hole: neither a real function nor the gap entries
		{100, 110, keyPtr(sparseKey(1))},
		{110, 120, keyPtr(sparseKey(2))},
		{120, 130, keyPtr(sparseKey(5))},
		{140, 150, nil},
	}
	for _, r := range ranges {
		for off := r.lo; off < r.hi; off++ {
			got, ok := tbl.KeyByTextOffset(off)
			if r.want == nil {
				if ok {
					t.Fatalf("KeyByTextOffset(%d) = %v, want none", off, got)
				}
				continue
			}
			if !ok || got != *r.want {
				t.Fatalf("KeyByTextOffset(%d) = %v, %v; want %v, true", off, got, ok, *r.want)
			}
		}
	}
}

func keyPtr(k Key) *Key { return &k }

func TestUnknownNamespace(t *testing.T) {
	tbl := makeTestTable()
	if _, ok := tbl.Loc(Key{Namespace: PulleyHostCall, Index: 0}); ok {
		t.Fatalf("Loc found an entry in a namespace never pushed")
	}
}

func TestBuilderRejectsOutOfOrderLocations(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Push to panic on an out-of-order location")
		}
	}()
	NewBuilder().Push(defKey(0), loc(10, 20)).Push(defKey(1), loc(0, 5))
}
