package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccuracyClamps(t *testing.T) {
	assert.Equal(t, 100.0, Accuracy(0, 200))
	assert.Equal(t, 100.0, Accuracy(-1, 200))
	assert.Equal(t, 0.0, Accuracy(0.5, 200))
	assert.Equal(t, 0.0, Accuracy(10, 150))
	assert.InDelta(t, 80.0, Accuracy(0.1, 200), 1e-9)
	assert.InDelta(t, 85.0, Accuracy(0.1, 150), 1e-9)
}

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(10, 20*time.Millisecond, 0.3)
	w.Record(8, 10*time.Millisecond, 0.1)
	snap := w.Snapshot()

	assert.Equal(t, 2, snap.Fires)
	assert.Equal(t, 18, snap.Samples)
	assert.InDelta(t, 15.0, snap.AvgComputeMS, 1e-9)
	assert.InDelta(t, 600.0, snap.SamplesPerSec, 1e-6)
	assert.InDelta(t, 0.2, snap.MeanError, 1e-12)
	assert.Equal(t, 0.1, snap.LastError)

	assert.Equal(t, Snapshot{}, w.Snapshot(), "window was not reset")
}
