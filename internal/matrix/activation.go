package matrix

import (
	"fmt"
	"math"
)

// Activation selects the elementwise function applied by Map.
type Activation int

const (
	// Sigmoid is the logistic function 1 / (1 + e^-x).
	Sigmoid Activation = iota
	// SigmoidDerivative is a·(1-a), valid only when a is already a sigmoid output.
	SigmoidDerivative
)

// Apply evaluates the activation at x.
func (a Activation) Apply(x float64) float64 {
	switch a {
	case Sigmoid:
		return 1 / (1 + math.Exp(-x))
	case SigmoidDerivative:
		return x * (1 - x)
	default:
		panic(fmt.Sprintf("matrix: unknown activation %d", int(a)))
	}
}

func (a Activation) String() string {
	switch a {
	case Sigmoid:
		return "sigmoid"
	case SigmoidDerivative:
		return "sigmoid-derivative"
	default:
		return fmt.Sprintf("activation(%d)", int(a))
	}
}
