package metrics

import (
	"math"
	"time"
)

// Accuracy maps a mean batch error onto the [0, 100] health signal
// 100 - meanError*scale, saturating at both bounds.
func Accuracy(meanError, scale float64) float64 {
	return math.Max(0, math.Min(100, 100-meanError*scale))
}

// Window accumulates training fire events between snapshots.
type Window struct {
	fires     int
	samples   int
	compute   time.Duration
	errorSum  float64
	lastError float64
}

// Record adds one fire event that trained batchSize samples.
func (w *Window) Record(batchSize int, computeTime time.Duration, meanError float64) {
	w.fires++
	w.samples += batchSize
	w.compute += computeTime
	w.errorSum += meanError
	w.lastError = meanError
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		Fires:     w.fires,
		Samples:   w.samples,
		LastError: w.lastError,
	}
	if w.fires > 0 {
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.fires)
		snap.MeanError = w.errorSum / float64(w.fires)
	}
	if w.compute > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.compute.Seconds()
	}
	*w = Window{}
	return snap
}

// Snapshot represents loggable training metrics.
type Snapshot struct {
	Fires         int
	Samples       int
	SamplesPerSec float64
	AvgComputeMS  float64
	MeanError     float64
	LastError     float64
}
