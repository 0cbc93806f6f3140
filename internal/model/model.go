package model

import "errors"

// ErrDimensionMismatch indicates a vector whose length does not match the
// network's configured layer sizes.
var ErrDimensionMismatch = errors.New("model: dimension mismatch")

// Predictor produces an action vector from an observation vector.
type Predictor interface {
	Predict(input []float64) ([]float64, error)
}

// Learner adjusts its parameters from one observed (input, target) pair and
// reports the resulting error magnitude.
type Learner interface {
	Update(input, target []float64) (float64, error)
}

var (
	_ Predictor = (*Network)(nil)
	_ Learner   = (*Trainer)(nil)
)
