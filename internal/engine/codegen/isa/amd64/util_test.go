package amd64

import (
	"context"
	"strings"

	"github.com/wasmforge/wasmforge/internal/engine/codegen"
	"github.com/wasmforge/wasmforge/internal/engine/codegen/regalloc"
	"github.com/wasmforge/wasmforge/internal/engine/ir"
)

func newSetupWithMockContext() (*mockCompiler, ir.Builder, *machine) {
	ctx := newMockCompilationContext()
	m := NewBackend().(*machine)
	m.SetCompiler(ctx)
	ssaB := ir.NewBuilder()
	blk := ssaB.AllocateBasicBlock()
	ssaB.SetCurrentBlock(blk)
	return ctx, ssaB, m
}

// mockCompiler implements codegen.Compiler for testing.
type mockCompiler struct {
	currentGID  ir.InstructionGroupID
	vRegCounter int
	vRegMap     map[ir.Value]regalloc.VReg
	definitions map[ir.Value]codegen.SSAValueDefinition
	sigs        map[ir.SignatureID]*ir.Signature
	typeOf      map[regalloc.VRegID]ir.Type
	relocs      []codegen.RelocationInfo
	buf         []byte
}

func (m *mockCompiler) BufPtr() *[]byte { return &m.buf }

func (m *mockCompiler) GetFunctionABI(sig *ir.Signature) *codegen.FunctionABI {
	// TODO implement me
	panic("implement me")
}

func (m *mockCompiler) SSABuilder() ir.Builder { return nil }

func (m *mockCompiler) LoopNestingForestRoots() []ir.BasicBlock { panic("TODO") }

func (m *mockCompiler) SourceOffsetInfo() []codegen.SourceOffsetInfo { return nil }

func (m *mockCompiler) AddSourceOffsetInfo(int64, ir.SourceOffset) {}

func (m *mockCompiler) AddRelocationInfo(funcRef ir.FuncRef) {
	m.relocs = append(m.relocs, codegen.RelocationInfo{FuncRef: funcRef, Offset: int64(len(m.buf))})
}

func (m *mockCompiler) Emit4Bytes(b uint32) {
	m.buf = append(m.buf, byte(b), byte(b>>8), byte(b>>16), byte(b>>24))
}

func (m *mockCompiler) EmitByte(b byte) {
	m.buf = append(m.buf, b)
}

func (m *mockCompiler) Emit8Bytes(b uint64) {
	m.buf = append(m.buf, byte(b), byte(b>>8), byte(b>>16), byte(b>>24), byte(b>>32), byte(b>>40), byte(b>>48), byte(b>>56))
}

func (m *mockCompiler) Encode()     {}
func (m *mockCompiler) Buf() []byte { return m.buf }
func (m *mockCompiler) TypeOf(v regalloc.VReg) (ret ir.Type) {
	return m.typeOf[v.ID()]
}
func (m *mockCompiler) Finalize(context.Context) (err error) { return }
func (m *mockCompiler) RegAlloc()                            {}
func (m *mockCompiler) Lower()                               {}
func (m *mockCompiler) Format() string                       { return "" }
func (m *mockCompiler) Init()                                {}

func newMockCompilationContext() *mockCompiler { //nolint
	return &mockCompiler{
		vRegMap:     make(map[ir.Value]regalloc.VReg),
		definitions: make(map[ir.Value]codegen.SSAValueDefinition),
		typeOf:      map[regalloc.VRegID]ir.Type{},
	}
}

// ResolveSignature implements codegen.Compiler.
func (m *mockCompiler) ResolveSignature(id ir.SignatureID) *ir.Signature {
	return m.sigs[id]
}

// AllocateVReg implements codegen.Compiler.
func (m *mockCompiler) AllocateVReg(typ ir.Type) regalloc.VReg {
	m.vRegCounter++
	regType := regalloc.RegTypeOf(typ)
	ret := regalloc.VReg(m.vRegCounter).SetRegType(regType)
	m.typeOf[ret.ID()] = typ
	return ret
}

// ValueDefinition implements codegen.Compiler.
func (m *mockCompiler) ValueDefinition(value ir.Value) codegen.SSAValueDefinition {
	definition, exists := m.definitions[value]
	if !exists {
		return codegen.SSAValueDefinition{V: value}
	}
	return definition
}

// VRegOf implements codegen.Compiler.
func (m *mockCompiler) VRegOf(value ir.Value) regalloc.VReg {
	vReg, exists := m.vRegMap[value]
	if !exists {
		panic("Value does not exist")
	}
	return vReg
}

// MatchInstr implements codegen.Compiler.
func (m *mockCompiler) MatchInstr(def codegen.SSAValueDefinition, opcode ir.Opcode) bool {
	instr := def.Instr
	return def.IsFromInstr() &&
		instr.Opcode() == opcode &&
		instr.GroupID() == m.currentGID &&
		def.RefCount < 2
}

// MatchInstrOneOf implements codegen.Compiler.
func (m *mockCompiler) MatchInstrOneOf(def codegen.SSAValueDefinition, opcodes []ir.Opcode) ir.Opcode {
	for _, opcode := range opcodes {
		if m.MatchInstr(def, opcode) {
			return opcode
		}
	}
	return ir.OpcodeInvalid
}

// Compile implements codegen.Compiler.
func (m *mockCompiler) Compile(context.Context) (_ []byte, _ []codegen.RelocationInfo, _ error) {
	return
}

func formatEmittedInstructionsInCurrentBlock(m *machine) string {
	m.FlushPendingInstructions()
	var strs []string
	for cur := m.perBlockHead; cur != nil; cur = cur.next {
		strs = append(strs, cur.String())
	}
	return strings.Join(strs, "\n")
}
