package main

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

// synthesizeModule builds a minimal, valid wasm.Module with n defined
// functions, each taking no arguments and returning a constant i32.
//
// This tree does not carry a WebAssembly text/binary decoder (the
// retrieval pack's samples of that layer never reached this workspace;
// see DESIGN.md), so the CLI cannot yet accept an arbitrary %.wasm file.
// synthesizeModule exists so `compile`/`inspect` still exercise the real
// compiler pipeline end-to-end rather than only being reachable from
// Go-level unit tests.
func synthesizeModule(n int) *wasm.Module {
	m := &wasm.Module{
		TypeSection:     []wasm.FunctionType{{Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		FunctionSection: make([]wasm.Index, n),
		CodeSection:     make([]wasm.Code, n),
	}
	for i := 0; i < n; i++ {
		m.FunctionSection[i] = 0 // all functions share the sole signature
		m.CodeSection[i] = wasm.Code{
			Body: []byte{wasm.OpcodeI32Const, byte(i & 0x7f), wasm.OpcodeEnd},
		}
	}
	m.ID = moduleID(n)
	return m
}

// moduleID derives a deterministic, content-free cache key so repeated
// CLI invocations with the same --functions count hit the same
// compiled-module cache entry instead of recompiling.
func moduleID(n int) (id wasm.ModuleID) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	sum := sha256.Sum256(buf[:])
	copy(id[:], sum[:])
	return
}
