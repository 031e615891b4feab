package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Declarative package-level gauges/counters, the same promauto style the host project's
// metrics/metrics.go uses, scoped to this module's consensus telemetry (§2a): current view, current
// hqc height, last commit height, open blame count, and active propagation timers.
var (
	// View is the replica's current view number
	View = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotstuff_view",
		Help: "Current view number of this replica",
	})

	// HQCHeight is the height of the replica's highest known QC (hqc.block.height)
	HQCHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotstuff_hqc_height",
		Help: "Height of the highest known QC block (hqc)",
	})

	// LastCommitHeight is the height of b_exec, the last block this replica has committed
	LastCommitHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotstuff_last_commit_height",
		Help: "Height of the last committed block (b_exec)",
	})

	// ViewTransitionsTotal counts how many times this replica has entered a view transition
	ViewTransitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotstuff_view_transitions_total",
		Help: "Total number of view transitions this replica has entered",
	})

	// OpenBlameCount is the number of distinct blamers accumulated for the current view's blame QC
	OpenBlameCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotstuff_open_blame_count",
		Help: "Number of distinct blamers accumulated for the current view",
	})

	// ActivePropagationTimers tracks how many propagate/ack/pre-commit timers are currently armed
	ActivePropagationTimers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hotstuff_active_propagation_timers",
		Help: "Number of currently armed timers, labeled by kind",
	}, []string{"kind"})

	// CommitsTotal counts blocks that have run through check_commit and been marked committed
	CommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotstuff_commits_total",
		Help: "Total number of blocks committed by this replica",
	})
)
