package trainer

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"adaptive-predictor/internal/dataset"
	"adaptive-predictor/internal/metrics"
	"adaptive-predictor/internal/model"
)

// Policy controls when and how much the scheduler trains.
type Policy struct {
	// MinSamples is the buffer length that must be exceeded before any
	// training is attempted.
	MinSamples int
	// FireProbability is the per-tick chance of a training event once the
	// threshold is met.
	FireProbability float64
	// BatchSize caps the number of most recent samples trained per event.
	BatchSize int
	// AccuracyScale converts mean batch error into the accuracy signal.
	AccuracyScale float64
}

// Outcome describes a single scheduler tick.
type Outcome struct {
	Fired     bool
	Batch     int
	MeanError float64
	Accuracy  float64
}

// Scheduler turns a stream of buffered samples into periodic mini-batch
// updates and keeps the resulting accuracy estimate.
type Scheduler struct {
	policy   Policy
	buffer   *dataset.Buffer
	learner  model.Learner
	rng      *rand.Rand
	accuracy float64
	window   metrics.Window
}

// NewScheduler wires a scheduler over buffer and learner. rng drives the
// per-tick fire trial.
func NewScheduler(policy Policy, buffer *dataset.Buffer, learner model.Learner, rng *rand.Rand) *Scheduler {
	return &Scheduler{policy: policy, buffer: buffer, learner: learner, rng: rng}
}

// Tick runs one scheduling decision. When it fires, the most recent
// min(BatchSize, len) samples are trained newest first and the accuracy is
// recomputed from their mean error; otherwise accuracy is unchanged.
func (s *Scheduler) Tick() (Outcome, error) {
	if s.buffer.Len() <= s.policy.MinSamples || s.rng.Float64() >= s.policy.FireProbability {
		return Outcome{Accuracy: s.accuracy}, nil
	}

	start := time.Now()
	batch := s.buffer.Recent(s.policy.BatchSize)
	errs := make([]float64, len(batch))
	for i, sample := range batch {
		e, err := s.learner.Update(sample.Input, sample.Target)
		if err != nil {
			return Outcome{Accuracy: s.accuracy}, fmt.Errorf("train sample %d of %d: %w", i+1, len(batch), err)
		}
		errs[i] = e
	}
	mean := floats.Sum(errs) / float64(len(batch))
	s.accuracy = metrics.Accuracy(mean, s.policy.AccuracyScale)
	s.window.Record(len(batch), time.Since(start), mean)

	return Outcome{Fired: true, Batch: len(batch), MeanError: mean, Accuracy: s.accuracy}, nil
}

// Accuracy returns the accuracy computed at the last fire event.
func (s *Scheduler) Accuracy() float64 {
	return s.accuracy
}

// Stats snapshots and drains the fire-event window.
func (s *Scheduler) Stats() metrics.Snapshot {
	return s.window.Snapshot()
}

// Reset returns accuracy to its initial value. Fire events recorded since the
// last Stats call are kept so hosts still see them.
func (s *Scheduler) Reset() {
	s.accuracy = 0
}
