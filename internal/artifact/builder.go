package artifact

import "fmt"

// Builder constructs a Table by accepting one function's compiled
// location at a time, in namespace order and increasing per-namespace
// index order. This matches how a module's functions are actually
// compiled: one code section, one pass, emitting machine code (and thus
// knowing each function's text offset) strictly in order.
type Builder struct {
	t Table

	haveCurrent  bool
	currentNS    Namespace
	lastIndex    uint32
	haveLastIndex bool
	lastLoc      FunctionLoc
	haveLastLoc  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Push records that key compiled to loc. Keys must be pushed in
// non-decreasing namespace order, and within a namespace in strictly
// increasing index order; FunctionLoc ranges must not overlap and must
// be non-decreasing in Start. Push panics if entries are pushed out of
// order, mirroring the originating table builder this package is
// modeled on: a compiler that emits functions out of text-offset order
// has a bug worth surfacing immediately, not swallowing silently.
func (b *Builder) Push(key Key, loc FunctionLoc) *Builder {
	if b.haveLastLoc && loc.Start < b.lastLoc.end() {
		panic(fmt.Sprintf("artifact: function locations pushed out of order: %v before %v", b.lastLoc, loc))
	}

	if !b.haveCurrent || b.currentNS != key.Namespace {
		if b.haveCurrent && key.Namespace < b.currentNS {
			panic(fmt.Sprintf("artifact: namespace %s pushed after %s", key.Namespace, b.currentNS))
		}
		b.t.namespaces = append(b.t.namespaces, namespaceRange{
			namespace:   key.Namespace,
			locStart:    len(b.t.locs),
			sparseStart: len(b.t.sparseIndices),
		})
		b.currentNS = key.Namespace
		b.haveCurrent = true
		b.haveLastIndex = false
	} else if b.haveLastIndex && key.Index <= b.lastIndex {
		panic(fmt.Sprintf("artifact: key index %d pushed after %d in namespace %s", key.Index, b.lastIndex, key.Namespace))
	}
	b.lastIndex, b.haveLastIndex = key.Index, true
	b.lastLoc, b.haveLastLoc = loc, true

	cur := &b.t.namespaces[len(b.t.namespaces)-1]
	if key.Namespace.isDense() {
		// Fill any omitted indices since the last push with empty
		// placeholders so that dense lookups stay O(1) and reverse
		// lookups still see a hole rather than misattributing the
		// offset to a neighboring function.
		wantIdx := cur.locStart + int(key.Index)
		holeStart := b.lastFuncLocEnd()
		for len(b.t.locs) < wantIdx {
			b.t.locs = append(b.t.locs, FunctionLoc{Start: holeStart})
			b.t.keys = append(b.t.keys, Key{})
		}
	} else {
		b.t.sparseIndices = append(b.t.sparseIndices, key.Index)
		cur.sparseEnd = len(b.t.sparseIndices)
	}

	b.t.locs = append(b.t.locs, loc)
	b.t.keys = append(b.t.keys, key)
	cur.locEnd = len(b.t.locs)

	return b
}

func (b *Builder) lastFuncLocEnd() uint32 {
	if n := len(b.t.locs); n > 0 {
		return b.t.locs[n-1].end()
	}
	return 0
}

// Finish returns the built Table. The Builder must not be reused
// afterward.
func (b *Builder) Finish() *Table {
	return &b.t
}
