// Package metrics exposes the prometheus collectors of the ieml tools.
// Collectors live in a private registry; the CLI can dump it to a
// node_exporter textfile after a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every ieml collector.
var Registry = prometheus.NewRegistry()

var (
	// StageSeconds tracks dictionary build stages (relations, ranks, load).
	StageSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ieml",
		Subsystem: "dictionary",
		Name:      "stage_seconds",
		Help:      "Duration of dictionary build stages.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"stage"})

	// DictionaryTerms is the size of the last defined dictionary.
	DictionaryTerms = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ieml",
		Subsystem: "dictionary",
		Name:      "terms",
		Help:      "Number of terms in the last defined dictionary.",
	})

	// VersionsPublished counts dictionary versions made current.
	VersionsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ieml",
		Subsystem: "dictionary",
		Name:      "versions_published_total",
		Help:      "Dictionary versions published to a registry.",
	})

	// Factorizations counts factorizer calls by outcome (computed, cached, error).
	Factorizations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ieml",
		Subsystem: "script",
		Name:      "factorizations_total",
		Help:      "Factorization requests by outcome.",
	}, []string{"outcome"})

	// CacheLookups counts cache lookups by layer and result (hit, miss).
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ieml",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by layer and result.",
	}, []string{"layer", "result"})

	// PropositionChecks counts proposition checks by outcome.
	PropositionChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ieml",
		Subsystem: "proposition",
		Name:      "checks_total",
		Help:      "Proposition graph checks by outcome.",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(
		StageSeconds,
		DictionaryTerms,
		VersionsPublished,
		Factorizations,
		CacheLookups,
		PropositionChecks,
	)
}

// ObserveStage records the time elapsed since start for a build stage.
func ObserveStage(stage string, start time.Time) {
	StageSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteToTextfile writes the registry in the text exposition format, for
// the node_exporter textfile collector.
func WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
