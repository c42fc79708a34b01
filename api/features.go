package api

import (
	"fmt"
	"sort"
	"strings"
)

// CoreFeatures is a bitset of WebAssembly Core specification features.
// Bit positions are deliberately unstable across releases: compare only
// against the CoreFeature* constants, never raw integers.
//
// Zero is defined as "no feature enabled", so feature values must start
// at 1 (bit 0), never 0.
type CoreFeatures uint64

const (
	// CoreFeatureMutableGlobal allows globals to be mutable via global.set.
	// This is included in CoreFeaturesV1.
	CoreFeatureMutableGlobal CoreFeatures = 1 << iota
	// CoreFeatureSignExtensionOps adds sign-extension instructions, such as i32.extend8_s.
	CoreFeatureSignExtensionOps
	// CoreFeatureMultiValue allows function and block types to return more than one result.
	CoreFeatureMultiValue
	// CoreFeatureNonTrappingFloatToIntConversion adds the saturating truncation instructions, e.g. i32.trunc_sat_f32_s.
	CoreFeatureNonTrappingFloatToIntConversion
	// CoreFeatureBulkMemoryOperations adds memory.copy, memory.fill and table-initialization instructions.
	CoreFeatureBulkMemoryOperations
	// CoreFeatureReferenceTypes adds externref and the reference-carrying table instructions.
	CoreFeatureReferenceTypes
	// CoreFeatureSIMD adds the v128 value type and vector instructions.
	CoreFeatureSIMD
)

// CoreFeaturesV1 are features included in the WebAssembly Core 1.0
// (MVP) specification.
const CoreFeaturesV1 = CoreFeatureMutableGlobal

// CoreFeaturesV2 are features included in the WebAssembly Core 2.0
// specification.
const CoreFeaturesV2 = CoreFeaturesV1 |
	CoreFeatureSignExtensionOps |
	CoreFeatureMultiValue |
	CoreFeatureNonTrappingFloatToIntConversion |
	CoreFeatureBulkMemoryOperations |
	CoreFeatureReferenceTypes |
	CoreFeatureSIMD

var coreFeatureNames = map[CoreFeatures]string{
	CoreFeatureMutableGlobal:                   "mutable-global",
	CoreFeatureSignExtensionOps:                "sign-extension-ops",
	CoreFeatureMultiValue:                      "multi-value",
	CoreFeatureNonTrappingFloatToIntConversion: "nontrapping-float-to-int-conversion",
	CoreFeatureBulkMemoryOperations:             "bulk-memory-operations",
	CoreFeatureReferenceTypes:                   "reference-types",
	CoreFeatureSIMD:                             "simd",
}

// IsEnabled returns true if the feature is enabled.
func (f CoreFeatures) IsEnabled(feature CoreFeatures) bool {
	return f&feature != 0
}

// SetEnabled returns a copy of f with feature set to the given value.
func (f CoreFeatures) SetEnabled(feature CoreFeatures, val bool) CoreFeatures {
	if val {
		return f | feature
	}
	return f &^ feature
}

// RequireEnabled returns an error if feature is not enabled in f.
func (f CoreFeatures) RequireEnabled(feature CoreFeatures) error {
	if !f.IsEnabled(feature) {
		return fmt.Errorf("feature %q is disabled", feature.String())
	}
	return nil
}

// String renders the set bits of f as a sorted, pipe-delimited list,
// e.g. "multi-value|mutable-global".
func (f CoreFeatures) String() string {
	var names []string
	for feature, name := range coreFeatureNames {
		if f.IsEnabled(feature) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
