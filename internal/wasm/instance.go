package wasm

// ModuleEngine is the subset of the compiled-module runtime that a
// wasm.ModuleInstance needs to reach back into: resolving imported
// functions and memory, and looking up a table target's concrete
// function.
type ModuleEngine interface {
	// ResolveImportedFunction binds imported function index idx to the
	// function at index importSrcModuleInstIndex of the module behind
	// importSrc, writing it into this engine's opaque module context.
	ResolveImportedFunction(idx, importSrcModuleInstIndex Index, importSrc ModuleEngine)
	// ResolveImportedMemory binds an imported linear memory owned by src.
	ResolveImportedMemory(src ModuleEngine)
	// LookupFunction resolves table[tableOffset], checking typeId
	// against the the bound function's registered signature.
	LookupFunction(t *TableInstance, typeId FunctionTypeID, tableOffset Index) (*ModuleInstance, Index)
}

// Reference is an opaque table element value: either a tagged null, or a
// pointer-sized handle to a compiled function instance.
type Reference uintptr

// ModuleInstance is a module's runtime state: its defined and imported
// memory, tables, and globals, plus a back-reference to the static
// Module it was instantiated from.
type ModuleInstance struct {
	Name string

	Source *Module

	*MemoryInstance

	Tables  []*TableInstance
	Globals []*GlobalInstance

	// TypeIDs maps a module-local type index to the interned, runtime-wide
	// FunctionTypeID used by call_indirect's signature check.
	TypeIDs []FunctionTypeID

	Exports map[string]Index

	Me ModuleEngine
}

// MemoryInstance is a linear memory's live storage. The type defines no
// methods. Compiled code caches Buffer's address and length and reloads
// both after memory.grow and after every call.
type MemoryInstance struct {
	Buffer []byte
	Min, Cap, Max uint32
	Shared bool
}

// TableInstance is a table's live storage: a contiguous array of
// function-instance pointers (for funcref tables) or opaque reference
// values (for externref tables). Compiled code reads References' data
// pointer and length from the slice header (offsets 0 and 8) and
// addresses an element at base+index*8.
type TableInstance struct {
	References []uintptr
	Len        uint32 // mirrors len(References); compiled code does not read it.
	Max        *uint32
	Type       RefType
}

// GlobalInstance is a global's live storage. Me is the owning module's
// engine, populated only for an imported global so the importer's
// opaque module context can be patched to alias it; Val holds the raw
// 64-bit payload (the only representation the compiler ever addresses
// directly).
type GlobalInstance struct {
	Me  ModuleEngine
	Val uint64

	// Type mirrors the static declaration for validation and for globals
	// accessed from the public API rather than compiled code.
	Type GlobalType
}
