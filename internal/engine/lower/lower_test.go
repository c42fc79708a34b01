package lower

import (
	"testing"
	"unsafe"

	"github.com/wasmforge/wasmforge/internal/testing/require"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

func TestGlobalInstanceValueOffset(t *testing.T) {
	// Offsets for wasm.GlobalInstance
	var globalInstance wasm.GlobalInstance
	require.Equal(t, int(unsafe.Offsetof(globalInstance.Val)), globalInstanceValueOffset,
		"globalInstanceValueOffset")

}
