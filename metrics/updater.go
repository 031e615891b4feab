package metrics

// SetView updates the current-view gauge
func SetView(view uint64) { View.Set(float64(view)) }

// SetHQCHeight updates the highest-known-QC-height gauge
func SetHQCHeight(height uint64) { HQCHeight.Set(float64(height)) }

// SetLastCommitHeight updates the last-committed-height gauge
func SetLastCommitHeight(height uint64) { LastCommitHeight.Set(float64(height)) }

// IncViewTransitions increments the view-transition counter
func IncViewTransitions() { ViewTransitionsTotal.Inc() }

// SetOpenBlameCount updates the number of distinct blamers accumulated in the current view
func SetOpenBlameCount(n int) { OpenBlameCount.Set(float64(n)) }

// IncPreCommitTimers adjusts the armed-pre-commit-timer gauge by delta (+1 on arm, -1 on stop/fire)
func IncPreCommitTimers(delta int) {
	ActivePropagationTimers.WithLabelValues("pre_commit").Add(float64(delta))
}

// IncPropagateTimers adjusts the armed-propagate-timer gauge by delta
func IncPropagateTimers(delta int) {
	ActivePropagationTimers.WithLabelValues("propagate").Add(float64(delta))
}

// IncAckTimers adjusts the armed-ack-timer gauge by delta
func IncAckTimers(delta int) {
	ActivePropagationTimers.WithLabelValues("ack").Add(float64(delta))
}

// IncCommits increments the total-commits counter
func IncCommits() { CommitsTotal.Inc() }
