//go:build !amd64 && !arm64

package platform

// CpuFeatures is a no-op implementation for architectures with no native
// compiler backend.
var CpuFeatures CpuFeatureFlags = &cpuFeatureFlags{}

type cpuFeatureFlags struct{}

func (*cpuFeatureFlags) Has(CpuFeature) bool      { return false }
func (*cpuFeatureFlags) HasExtra(CpuFeature) bool { return false }
