package engine

import (
	"fmt"
	"runtime"

	"github.com/wasmforge/wasmforge/internal/engine/codegen"
	"github.com/wasmforge/wasmforge/internal/engine/codegen/isa/amd64"
)

// newMachine selects the code generation backend for the host
// architecture. Only amd64 is wired up: the instruction-selection and
// register-allocation catalogs for other ISAs are out of scope, so
// unsupported architectures fail fast at startup rather than silently
// producing the wrong encoding.
func newMachine() codegen.Machine {
	switch runtime.GOARCH {
	case "amd64":
		return amd64.NewBackend()
	default:
		panic(fmt.Sprintf("unsupported architecture: %s", runtime.GOARCH))
	}
}

func unwindStack(sp, fp, top uintptr, returnAddresses []uintptr) []uintptr {
	switch runtime.GOARCH {
	case "amd64":
		return amd64.UnwindStack(sp, fp, top, returnAddresses)
	default:
		panic(fmt.Sprintf("unsupported architecture: %s", runtime.GOARCH))
	}
}

func goCallStackView(stackPointerBeforeGoCall *uint64) []uint64 {
	switch runtime.GOARCH {
	case "amd64":
		return amd64.GoCallStackView(stackPointerBeforeGoCall)
	default:
		panic(fmt.Sprintf("unsupported architecture: %s", runtime.GOARCH))
	}
}
