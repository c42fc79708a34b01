// Package metrics exposes the compiler and runtime's Prometheus
// instrumentation: a small, fixed set of counters and histograms
// registered against a process-wide registry, read by an embedder that
// wants to scrape them (e.g. serve them over /metrics) rather than have
// every call site plumb a registry through the compiler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registry every metric in this package registers
// against. It is exported so an embedder can pass it directly to
// promhttp.HandlerFor instead of relying on the global default
// registry, which keeps multiple wasmforge engines in one process from
// fighting over metric registration.
var Registry = prometheus.NewRegistry()

var (
	// ModulesCompiled counts modules successfully compiled, labeled by
	// whether the module was instantiated as a host module or a
	// regular Wasm module.
	ModulesCompiled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wasmforge",
		Subsystem: "compiler",
		Name:      "modules_compiled_total",
		Help:      "Number of modules successfully compiled.",
	}, []string{"kind"})

	// CompileDuration observes how long a single module's compilation
	// took, from entry into CompileModule to the executable being
	// mapped.
	CompileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wasmforge",
		Subsystem: "compiler",
		Name:      "compile_duration_seconds",
		Help:      "Time taken to compile a module to native code.",
		Buckets:   prometheus.DefBuckets,
	})

	// ArtifactTableEntries observes the number of compiled-function
	// entries recorded in a module's artifact table, a proxy for how
	// much of the table's dense-vs-sparse packing trade-off actually
	// matters for real modules.
	ArtifactTableEntries = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wasmforge",
		Subsystem: "compiler",
		Name:      "artifact_table_entries",
		Help:      "Number of entries in a compiled module's artifact table.",
		Buckets:   []float64{1, 4, 16, 64, 256, 1024, 4096},
	})
)

func init() {
	Registry.MustRegister(ModulesCompiled, CompileDuration, ArtifactTableEntries)
}

// ObserveCompile records one completed compilation. kind is "module" or
// "host" to distinguish regular Wasm modules from host modules.
func ObserveCompile(kind string, started time.Time, artifactEntries int) {
	ModulesCompiled.WithLabelValues(kind).Inc()
	CompileDuration.Observe(time.Since(started).Seconds())
	ArtifactTableEntries.Observe(float64(artifactEntries))
}
