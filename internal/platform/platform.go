// Package platform isolates the OS- and architecture-specific code the
// compiler needs: executable memory allocation and CPU feature
// detection. Everything else in the core is written without build tags.
package platform

import "runtime"

// CompilerSupported reports whether this GOARCH has a native code
// generation backend (amd64 only).
func CompilerSupported() bool {
	switch runtime.GOARCH {
	case "amd64":
		return true
	default:
		return false
	}
}
