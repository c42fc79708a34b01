//go:build !amd64 && !arm64

package wazero

// CompilerSupported returns whether the compiler is supported in this environment.
const CompilerSupported = false

// newRuntimeConfig returns NewRuntimeConfigInterpreter
func newRuntimeConfig() *RuntimeConfig {
	return NewRuntimeConfigInterpreter()
}
