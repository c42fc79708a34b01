//go:build arm64

package platform

import "golang.org/x/sys/cpu"

// CpuFeatures exposes the capabilities of this arm64 CPU.
var CpuFeatures CpuFeatureFlags = loadCpuFeatureFlags()

type cpuFeatureFlags struct {
	primary uint64
}

func loadCpuFeatureFlags() CpuFeatureFlags {
	var primary uint64
	if cpu.ARM64.HasATOMICS {
		primary |= uint64(CpuFeatureArm64Atomic)
	}
	return &cpuFeatureFlags{primary: primary}
}

func (f *cpuFeatureFlags) Has(feature CpuFeature) bool      { return f.primary&uint64(feature) != 0 }
func (f *cpuFeatureFlags) HasExtra(CpuFeature) bool         { return false }
