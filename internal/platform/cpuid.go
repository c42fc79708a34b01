package platform

// CpuFeature is a bit flag identifying one piece of ISA-extension
// hardware support, queried via CpuFeatureFlags.Has/HasExtra.
type CpuFeature uint64

// CpuFeatureFlags abstracts the underlying CPUID/ID-register query so
// a code generation backend can gate instruction selection without
// caring how the flags were obtained.
type CpuFeatureFlags interface {
	// Has reports whether a primary-register feature bit is set.
	Has(cpuFeature CpuFeature) bool
	// HasExtra reports whether a secondary-register feature bit is set.
	HasExtra(cpuFeature CpuFeature) bool
}

const (
	// amd64 feature bits, values mirror the standard CPUID ECX/EDX layout
	// for the leaves the amd64 backend consults.
	CpuFeatureAmd64SSE3    CpuFeature = 1 << 0
	CpuFeatureAmd64SSE4_1  CpuFeature = 1 << 19
	CpuFeatureAmd64SSE4_2  CpuFeature = 1 << 20
	CpuExtraFeatureAmd64ABM CpuFeature = 1 << 5 // LZCNT / "advanced bit manipulation"

	// arm64 feature bit for the atomic instruction extension.
	CpuFeatureArm64Atomic CpuFeature = 1 << 0
)
