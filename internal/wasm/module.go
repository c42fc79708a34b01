package wasm

import (
	"context"

	"github.com/wasmforge/wasmforge/experimental"
)

// ModuleID is a content hash of a Module, used as the compiled-module
// cache key.
type ModuleID [32]byte

// Engine compiles and runs modules. The core provides exactly one
// implementation (internal/engine), but the type stays an interface so
// the runtime package at the repository root never depends on compiler
// internals directly.
type Engine interface {
	// CompileModule compiles module and caches the result keyed by its ID,
	// so repeated instantiation of the same module is free.
	CompileModule(ctx context.Context, module *Module, listeners []experimental.FunctionListener, ensureTermination bool) error

	// CompiledModuleCount returns the number of modules currently compiled
	// and cached in this Engine.
	CompiledModuleCount() uint32

	// DeleteCompiledModule releases the compiled artifacts for module, if
	// present. A no-op if module was never compiled or was already deleted.
	DeleteCompiledModule(module *Module)

	// NewModuleEngine instantiates the compiled form of module m into mi.
	NewModuleEngine(m *Module, mi *ModuleInstance) (ModuleEngine, error)

	// Close releases every resource held by the engine, invalidating all
	// modules compiled through it.
	Close() error
}

// Module is the decoded form of a WebAssembly binary: the set of sections
// a compiler needs to lower function bodies and lay out instance memory.
// Binary parsing itself lives outside the compiler's scope (see
// DESIGN.md); Module is the contract the parser and the compiler agree on.
type Module struct {
	TypeSection []FunctionType

	ImportSection []Import
	// ImportFunctionCount, ImportGlobalCount, ImportMemoryCount and
	// ImportTableCount are the number of entries in ImportSection of the
	// respective ExternType, cached at decode time so layout code
	// (ModuleContextOffsetData) need not re-scan ImportSection.
	ImportFunctionCount, ImportGlobalCount, ImportMemoryCount, ImportTableCount uint32

	FunctionSection []Index // index into TypeSection, one per defined (non-imported) function
	CodeSection     []Code

	TableSection  []Table
	MemorySection *Memory

	GlobalSection []Global

	ExportSection []Export

	// StartSection holds the optional start function index.
	StartSection *Index

	ElementSection []ElementSegment
	DataSection    []DataSegment

	NameSection *NameSection

	// ID is a content hash used as a cache and compiled-artifact key.
	ID ModuleID
}

// Import describes a single entry of the import section.
type Import struct {
	Type ExternType

	Module, Name string

	// DescFunc, DescTable, DescMem and DescGlobal hold the descriptor for
	// the respective Type; only one is populated.
	DescFunc   Index
	DescTable  Table
	DescMem    Memory
	DescGlobal GlobalType
}

// Export describes a single entry of the export section.
type Export struct {
	Type  ExternType
	Name  string
	Index Index
}

// Memory is the static (module-level) description of a linear memory:
// its initial and optional maximum size, in pages.
type Memory struct {
	Min, Cap, Max uint32
	IsMaxEncoded  bool
	// IsShared marks a memory usable with atomic wait/notify across
	// multiple instances/threads.
IsShared bool
}

// Table is the static description of a table: its element type and
// initial/maximum size, in elements.
type Table struct {
	Type RefType
	Min  uint32
	Max  *uint32
}

// GlobalType is the static description of a global: its value type and
// mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global combines a GlobalType with its initializer expression.
type Global struct {
	Type GlobalType
	Init ConstantExpression
}

// ConstantExpression is a restricted instruction sequence (a single
// constant-producing instruction, by the Wasm MVP grammar) used to
// initialize globals, table elements, and active data/element segments.
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// Code is a defined function's body: its local declarations (beyond the
// parameters already present in the signature) and instruction stream.
type Code struct {
	LocalTypes []ValueType
	Body       []byte
}

// ElementMode discriminates how an element segment is applied.
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclarative
)

// ElementSegment initializes a range of a table with function references.
type ElementSegment struct {
	Mode      ElementMode
	TableIndex Index
	Offset    ConstantExpression
	Init      []Index
}

// DataSegment initializes a range of linear memory with a byte string.
type DataSegment struct {
	Passive bool
	MemoryIndex Index
	Offset    ConstantExpression
	Init      []byte
}

// NameAssoc associates an index-space entry with a debug name.
type NameAssoc struct {
	Index Index
	Name  string
}

// NameMap is a sequence of NameAssoc, ordered by Index ascending as the
// binary format requires.
type NameMap []NameAssoc

// NameSection holds the optional human-readable debug names carried in
// the custom "name" section.
type NameSection struct {
	ModuleName    string
	FunctionNames NameMap
}
