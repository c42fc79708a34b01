package wasm

import (
	"bytes"
	"fmt"

	"github.com/wasmforge/wasmforge/api"
	"github.com/wasmforge/wasmforge/internal/leb128"
)

// Index is a position in one of a module's index spaces (types, funcs,
// tables, memories, globals, elements, data).
type Index = uint32

// ValueType and ExternType are re-exported from the public api package so
// that internal compiler code and the public surface agree on a single
// representation without a conversion step at the boundary.
type (
	ValueType  = api.ValueType
	ExternType = api.ExternType
)

const (
	ValueTypeI32       = api.ValueTypeI32
	ValueTypeI64       = api.ValueTypeI64
	ValueTypeF32       = api.ValueTypeF32
	ValueTypeF64       = api.ValueTypeF64
	ValueTypeExternref = api.ValueTypeExternref
	// ValueTypeV128 is a 128-bit vector, used by SIMD instructions.
	ValueTypeV128 ValueType = 0x7b

	ExternTypeFunc   = api.ExternTypeFunc
	ExternTypeTable  = api.ExternTypeTable
	ExternTypeMemory = api.ExternTypeMemory
	ExternTypeGlobal = api.ExternTypeGlobal
)

// ValueTypeName delegates to the public api so error messages and debug
// dumps match between the public and internal layers.
func ValueTypeName(t ValueType) string { return api.ValueTypeName(t) }

// RefType distinguishes the two reference types tables may hold.
type RefType = byte

const (
	RefTypeFuncref   RefType = 0x70
	RefTypeExternref RefType = ValueTypeExternref
)

const (
	// MemoryPageSize is the unit of memory.grow/memory.size: 64KiB.
	MemoryPageSize = uint32(65536)
	// MemoryPageSizeInBits lets offset arithmetic use a shift instead of a
	// division.
	MemoryPageSizeInBits = 16
	// MemoryLimitPages is the absolute ceiling on a linear memory's page
	// count imposed by the 32-bit address space.
	MemoryLimitPages = uint32(65536)
)

// FunctionTypeID uniquely identifies a FunctionType's shape across an
// entire runtime (not just one module), enabling call_indirect to check
// signature compatibility with an integer comparison.
type FunctionTypeID uint32

// UninitializedIndex marks a FunctionTypeID that has not yet been
// interned into a runtime-wide signature table.
const UninitializedIndex = FunctionTypeID(1<<32 - 1)

// FunctionType is a function signature: an ordered list of parameter and
// result value types.
type FunctionType struct {
	Params, Results []ValueType

	// id and cached are filled in lazily by the runtime's signature
	// interning table; a zero value means "not yet assigned".
	id     FunctionTypeID
	cached bool
}

// String renders the signature in a compact "(i32,i64)->(f32)" form.
func (f *FunctionType) String() string {
	return fmt.Sprintf("(%s)->(%s)", valueTypesString(f.Params), valueTypesString(f.Results))
}

func valueTypesString(vs []ValueType) string {
	s := ""
	for i, v := range vs {
		if i > 0 {
			s += ","
		}
		s += ValueTypeName(v)
	}
	return s
}

// EqualsSignature reports whether f and o accept and return exactly the
// same value types in the same order.
func (f *FunctionType) EqualsSignature(params, results []ValueType) bool {
	if len(f.Params) != len(params) || len(f.Results) != len(results) {
		return false
	}
	for i, p := range params {
		if f.Params[i] != p {
			return false
		}
	}
	for i, r := range results {
		if f.Results[i] != r {
			return false
		}
	}
	return true
}

// BlockType classifies a structured control instruction's (block/loop/if)
// signature: either a single optional result value type, or a reference
// into the module's type section for a full multi-value signature.
type BlockType struct {
	// Params and Results are the pre-resolved signature of the block,
	// already expanded from a multi-value type index if one was used, so
	// lowering code never needs to re-consult the type section.
	Params, Results []ValueType
}

// DecodeBlockType decodes the LEB128-encoded block type immediate that
// follows a block/loop/if opcode: 0x40 for no result, a single ValueType
// byte for a one-result block, or a signed 33-bit LEB128 index (always
// non-negative here) into types for a multi-value block. enabledFeatures
// gates the multi-value case, matching the binary format's evolution.
func DecodeBlockType(types []FunctionType, r *bytes.Reader, enabledFeatures api.CoreFeatures) (*BlockType, uint32, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, 0, fmt.Errorf("decode block type: %w", err)
	}

	switch b {
	case 0x40: // empty block type
		return &BlockType{}, 1, nil
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeExternref, RefTypeFuncref:
		return &BlockType{Results: []ValueType{b}}, 1, nil
	}

	// Otherwise, this is a signed LEB128 encoded type index; un-read the
	// first byte and decode the whole varint.
	if err := r.UnreadByte(); err != nil {
		return nil, 0, fmt.Errorf("decode block type: %w", err)
	}
	buf := make([]byte, r.Len())
	_, _ = r.Read(buf)
	raw, n, err := leb128.LoadInt64(buf)
	if err != nil {
		return nil, 0, fmt.Errorf("decode block type index: %w", err)
	}
	if err := enabledFeatures.RequireEnabled(api.CoreFeatureMultiValue); err != nil {
		return nil, 0, fmt.Errorf("block with a type index requires multi-value: %w", err)
	}
	if raw < 0 || int(raw) >= len(types) {
		return nil, 0, fmt.Errorf("invalid block type index %d", raw)
	}
	typ := types[raw]
	return &BlockType{Params: typ.Params, Results: typ.Results}, n, nil
}
