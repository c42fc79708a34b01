// Package artifact implements the compiled artifact table: a map from a
// compiled function's key (its namespace plus an index within that
// namespace) to its location in a module's text section, and the reverse
// map from a text-section offset back to the owning key.
//
// The table is organized the way a linker's symbol table is: namespaces
// that are almost always fully populated (every Wasm-defined function gets
// compiled) are packed densely so a lookup is an O(1) index into a slice;
// namespaces that are sparse (not every function needs, say, a
// WasmToBuiltinTrampoline) are packed as a sorted list searched in
// O(log n), avoiding a slot for every index that will never be used.
package artifact

import (
	"fmt"
	"sort"
)

// Namespace identifies which closed set of compiled functions a Key
// belongs to. Each namespace has its own independent index space.
type Namespace uint8

const (
	// DefinedWasmFunction is a function defined (not imported) in a Wasm
	// module's code section.
	DefinedWasmFunction Namespace = iota
	// ArrayToWasmTrampoline adapts a Go-style array-of-values call into a
	// compiled Wasm function's native calling convention.
	ArrayToWasmTrampoline
	// WasmToArrayTrampoline adapts a compiled Wasm call site into a
	// Go-style array-of-values host function call.
	WasmToArrayTrampoline
	// WasmToBuiltinTrampoline calls into a runtime builtin (memory.grow,
	// a stack check, etc.) from compiled Wasm code.
	WasmToBuiltinTrampoline
	// PulleyHostCall is a host call made from the Pulley bytecode
	// interpreter fallback path.
	PulleyHostCall
	// ComponentTrampoline adapts a call across a component-model
	// boundary.
	ComponentTrampoline
	// ResourceDropTrampoline runs a component-model resource's
	// destructor.
	ResourceDropTrampoline
	// UnsafeIntrinsic is a compiler-synthesized intrinsic with no
	// corresponding Wasm-level function.
	UnsafeIntrinsic
	// PatchableToBuiltinTrampoline is a WasmToBuiltinTrampoline variant
	// whose call target is rewritten in place after the initial
	// compilation (e.g. once a lazily-compiled builtin becomes
	// available).
	PatchableToBuiltinTrampoline

	namespaceCount
)

// isDense reports whether a namespace's index space is expected to be
// fully (or nearly fully) populated, and therefore worth packing as a
// flat, index-addressable slice rather than a searched sparse list.
func (n Namespace) isDense() bool {
	switch n {
	case DefinedWasmFunction, WasmToArrayTrampoline, PulleyHostCall,
		ComponentTrampoline, ResourceDropTrampoline, UnsafeIntrinsic:
		return true
	case ArrayToWasmTrampoline, WasmToBuiltinTrampoline, PatchableToBuiltinTrampoline:
		return false
	default:
		panic(fmt.Sprintf("invalid namespace %d", n))
	}
}

// Key identifies one compiled function: its namespace and its index
// within that namespace's index space (e.g. a Wasm function index for
// DefinedWasmFunction).
type Key struct {
	Namespace Namespace
	Index     uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%s[%d]", k.Namespace, k.Index)
}

func (n Namespace) String() string {
	switch n {
	case DefinedWasmFunction:
		return "defined-wasm-function"
	case ArrayToWasmTrampoline:
		return "array-to-wasm-trampoline"
	case WasmToArrayTrampoline:
		return "wasm-to-array-trampoline"
	case WasmToBuiltinTrampoline:
		return "wasm-to-builtin-trampoline"
	case PulleyHostCall:
		return "pulley-host-call"
	case ComponentTrampoline:
		return "component-trampoline"
	case ResourceDropTrampoline:
		return "resource-drop-trampoline"
	case UnsafeIntrinsic:
		return "unsafe-intrinsic"
	case PatchableToBuiltinTrampoline:
		return "patchable-to-builtin-trampoline"
	default:
		return fmt.Sprintf("namespace(%d)", uint8(n))
	}
}

// FunctionLoc describes where a compiled function lives in a text
// section: a byte offset and a byte length.
type FunctionLoc struct {
	Start  uint32
	Length uint32
}

// IsEmpty reports whether this is a placeholder location, used to fill a
// hole left by an omitted index within a dense namespace.
func (l FunctionLoc) IsEmpty() bool { return l.Length == 0 }

func (l FunctionLoc) end() uint32 { return l.Start + l.Length }

type namespaceRange struct {
	namespace Namespace
	// locStart/locEnd bound this namespace's slice of locs.
	locStart, locEnd int
	// sparseStart/sparseEnd bound this namespace's slice of
	// sparseIndices; only meaningful when !namespace.isDense().
	sparseStart, sparseEnd int
}

// Table is a compiled artifact table: the set of compiled functions
// produced by one module's compilation, keyed by Key, queryable in
// either direction.
//
// Entries must be built in namespace order, and within a namespace in
// increasing index order; Builder enforces this.
type Table struct {
	namespaces []namespaceRange
	// locs holds, for dense namespaces, one entry per index in the
	// namespace's range (with holes represented by an empty
	// FunctionLoc), and for sparse namespaces, one entry per pushed key,
	// parallel to the corresponding slice of sparseIndices.
	//
	// locs is sorted by FunctionLoc.Start across the whole table, which
	// is what makes KeyByTextOffset possible: every compiled function
	// occupies a disjoint range of the text section, regardless of
	// which namespace it belongs to, because they all share one
	// executable buffer.
	locs []FunctionLoc
	keys []Key // keys[i] is the Key owning locs[i].

	// sparseIndices[i] is the namespace-local index of the sparse entry
	// whose FunctionLoc is at locs[namespaceRange.locStart+i].
	sparseIndices []uint32
}

// Len returns the total number of entries recorded across every
// namespace, including placeholder holes in dense namespaces.
func (t *Table) Len() int { return len(t.locs) }

func (t *Table) namespaceRangeOf(ns Namespace) (namespaceRange, bool) {
	for _, r := range t.namespaces {
		if r.namespace == ns {
			return r, true
		}
	}
	return namespaceRange{}, false
}

// Loc returns the compiled location of key, if the table has one.
func (t *Table) Loc(key Key) (FunctionLoc, bool) {
	r, ok := t.namespaceRangeOf(key.Namespace)
	if !ok {
		return FunctionLoc{}, false
	}
	if key.Namespace.isDense() {
		idx := r.locStart + int(key.Index)
		if idx >= r.locEnd {
			return FunctionLoc{}, false
		}
		loc := t.locs[idx]
		if loc.IsEmpty() {
			return FunctionLoc{}, false
		}
		return loc, true
	}
	sub := t.sparseIndices[r.sparseStart:r.sparseEnd]
	i := sort.Search(len(sub), func(i int) bool { return sub[i] >= key.Index })
	if i == len(sub) || sub[i] != key.Index {
		return FunctionLoc{}, false
	}
	return t.locs[r.locStart+i], true
}

// KeyByTextOffset returns the Key whose compiled function contains the
// given text-section offset, if any. This is the hole-aware reverse
// lookup: offsets that land inside a gap left by an omitted dense index
// (an empty FunctionLoc) correctly report no match.
func (t *Table) KeyByTextOffset(offset uint32) (Key, bool) {
	// locs is sorted by Start across the whole table (see the Table
	// doc comment), so we can binary search it directly regardless of
	// which namespace the match falls in.
	i := sort.Search(len(t.locs), func(i int) bool {
		return t.locs[i].end() > offset
	})
	if i == len(t.locs) {
		return Key{}, false
	}
	loc := t.locs[i]
	if loc.IsEmpty() || offset < loc.Start {
		return Key{}, false
	}
	return t.keys[i], true
}
