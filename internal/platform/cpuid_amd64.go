//go:build amd64

package platform

import "golang.org/x/sys/cpu"

// CpuFeatures exposes the capabilities of this amd64 CPU.
var CpuFeatures CpuFeatureFlags = loadCpuFeatureFlags()

type cpuFeatureFlags struct {
	primary, extra uint64
}

func loadCpuFeatureFlags() CpuFeatureFlags {
	var primary, extra uint64
	if cpu.X86.HasSSE3 {
		primary |= uint64(CpuFeatureAmd64SSE3)
	}
	if cpu.X86.HasSSE41 {
		primary |= uint64(CpuFeatureAmd64SSE4_1)
	}
	if cpu.X86.HasSSE42 {
		primary |= uint64(CpuFeatureAmd64SSE4_2)
	}
	if cpu.X86.HasLZCNT {
		extra |= uint64(CpuExtraFeatureAmd64ABM)
	}
	return &cpuFeatureFlags{primary: primary, extra: extra}
}

func (f *cpuFeatureFlags) Has(feature CpuFeature) bool      { return f.primary&uint64(feature) != 0 }
func (f *cpuFeatureFlags) HasExtra(feature CpuFeature) bool { return f.extra&uint64(feature) != 0 }
