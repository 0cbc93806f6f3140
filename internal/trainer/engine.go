package trainer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"adaptive-predictor/internal/dataset"
	"adaptive-predictor/internal/metrics"
	"adaptive-predictor/internal/model"
)

// ErrInvalidConfig reports engine settings that cannot be run.
var ErrInvalidConfig = errors.New("trainer: invalid engine config")

// EngineConfig captures the engine's hyperparameters and scheduling policy.
type EngineConfig struct {
	LearningRate         float64
	Momentum             float64
	BufferCapacity       int
	MinSamplesToTrain    int
	TrainFireProbability float64
	BatchSize            int
	AccuracyScale        float64
	Seed                 int64
}

// DefaultEngineConfig returns the stock settings.
func DefaultEngineConfig() EngineConfig {
	hyper := model.DefaultHyper()
	return EngineConfig{
		LearningRate:         hyper.LearningRate,
		Momentum:             hyper.Momentum,
		BufferCapacity:       100,
		MinSamplesToTrain:    10,
		TrainFireProbability: 0.1,
		BatchSize:            10,
		AccuracyScale:        200,
		Seed:                 42,
	}
}

// Validate verifies the config is runnable.
func (c EngineConfig) Validate() error {
	switch {
	case !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0):
		return fmt.Errorf("%w: learning rate must be > 0 (got %v)", ErrInvalidConfig, c.LearningRate)
	case !(c.Momentum >= 0 && c.Momentum < 1):
		return fmt.Errorf("%w: momentum must be in [0, 1) (got %v)", ErrInvalidConfig, c.Momentum)
	case c.BufferCapacity <= 0:
		return fmt.Errorf("%w: buffer capacity must be > 0 (got %d)", ErrInvalidConfig, c.BufferCapacity)
	case c.MinSamplesToTrain < 0 || c.MinSamplesToTrain >= c.BufferCapacity:
		return fmt.Errorf("%w: min samples to train must be in [0, %d) (got %d)", ErrInvalidConfig, c.BufferCapacity, c.MinSamplesToTrain)
	case !(c.TrainFireProbability >= 0 && c.TrainFireProbability <= 1):
		return fmt.Errorf("%w: fire probability must be in [0, 1] (got %v)", ErrInvalidConfig, c.TrainFireProbability)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be > 0 (got %d)", ErrInvalidConfig, c.BatchSize)
	case !(c.AccuracyScale > 0) || math.IsInf(c.AccuracyScale, 0):
		return fmt.Errorf("%w: accuracy scale must be > 0 (got %v)", ErrInvalidConfig, c.AccuracyScale)
	}
	return nil
}

// Engine couples a network with its sample buffer and training scheduler.
// It is not safe for concurrent use.
type Engine struct {
	net       *model.Network
	buffer    *dataset.Buffer
	scheduler *Scheduler
}

// NewEngine builds an engine for the given layer sizes. The same seed always
// yields the same initial weights and the same training cadence.
func NewEngine(inputSize, hiddenSize, outputSize int, cfg EngineConfig) (*Engine, error) {
	if inputSize <= 0 || hiddenSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("%w: layer sizes must be > 0 (got %d, %d, %d)", ErrInvalidConfig, inputSize, hiddenSize, outputSize)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hyper := model.Hyper{LearningRate: cfg.LearningRate, Momentum: cfg.Momentum}
	net, err := model.NewNetwork(inputSize, hiddenSize, outputSize, hyper, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	buffer := dataset.NewBuffer(cfg.BufferCapacity)
	policy := Policy{
		MinSamples:      cfg.MinSamplesToTrain,
		FireProbability: cfg.TrainFireProbability,
		BatchSize:       cfg.BatchSize,
		AccuracyScale:   cfg.AccuracyScale,
	}
	// fire trials draw from their own stream derived from the same seed
	trial := rand.New(rand.NewSource(cfg.Seed + 1))

	return &Engine{
		net:       net,
		buffer:    buffer,
		scheduler: NewScheduler(policy, buffer, model.NewTrainer(net), trial),
	}, nil
}

// Predict returns the network's output for input without side effects.
func (e *Engine) Predict(input []float64) ([]float64, error) {
	return e.net.Predict(input)
}

// Observe buffers the (input, target) pair, runs one scheduler tick and
// returns the current accuracy. Mismatched vectors are rejected before the
// buffer is touched.
func (e *Engine) Observe(input, target []float64) (float64, error) {
	out, err := e.ObserveTick(input, target)
	return out.Accuracy, err
}

// ObserveTick is Observe reporting the full scheduler outcome.
func (e *Engine) ObserveTick(input, target []float64) (Outcome, error) {
	in, _, out := e.net.Sizes()
	if len(input) != in {
		return Outcome{Accuracy: e.scheduler.Accuracy()}, fmt.Errorf("%w: input has %d values, engine expects %d", model.ErrDimensionMismatch, len(input), in)
	}
	if len(target) != out {
		return Outcome{Accuracy: e.scheduler.Accuracy()}, fmt.Errorf("%w: target has %d values, engine expects %d", model.ErrDimensionMismatch, len(target), out)
	}
	e.buffer.Push(dataset.NewSample(input, target))
	return e.scheduler.Tick()
}

// Reset clears buffered samples, momentum carry and accuracy. Learned
// weights and unreported training stats are kept.
func (e *Engine) Reset() {
	e.buffer.Clear()
	e.net.ResetMomentum()
	e.scheduler.Reset()
}

// Accuracy returns the accuracy from the most recent training event.
func (e *Engine) Accuracy() float64 {
	return e.scheduler.Accuracy()
}

// Len returns the number of buffered samples.
func (e *Engine) Len() int {
	return e.buffer.Len()
}

// Sizes returns the input, hidden and output layer widths.
func (e *Engine) Sizes() (input, hidden, output int) {
	return e.net.Sizes()
}

// Stats snapshots and drains training metrics gathered since the last call.
func (e *Engine) Stats() metrics.Snapshot {
	return e.scheduler.Stats()
}
