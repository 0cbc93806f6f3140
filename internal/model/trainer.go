package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"adaptive-predictor/internal/matrix"
)

// Trainer applies backpropagation with momentum to a Network.
type Trainer struct {
	net *Network
}

// NewTrainer returns a Trainer that mutates net in place.
func NewTrainer(net *Network) *Trainer {
	return &Trainer{net: net}
}

// step holds every quantity one Update needs, all derived from the same
// parameter snapshot.
type step struct {
	outputError       *matrix.Matrix
	outputGradient    *matrix.Matrix
	hiddenGradient    *matrix.Matrix
	deltaHiddenOutput *matrix.Matrix
	deltaInputHidden  *matrix.Matrix
}

// Update trains on one (input, target) pair and returns the mean absolute
// output error measured before the update. On a dimension mismatch the
// network is left untouched.
func (t *Trainer) Update(input, target []float64) (float64, error) {
	n := t.net
	if len(input) != n.inputSize {
		return 0, fmt.Errorf("%w: input has %d values, network expects %d", ErrDimensionMismatch, len(input), n.inputSize)
	}
	if len(target) != n.outputSize {
		return 0, fmt.Errorf("%w: target has %d values, network expects %d", ErrDimensionMismatch, len(target), n.outputSize)
	}

	s, err := t.backprop(input, target)
	if err != nil {
		return 0, err
	}
	if err := t.apply(s); err != nil {
		return 0, err
	}

	errs, err := s.outputError.Vector()
	if err != nil {
		return 0, err
	}
	return floats.Norm(errs, 1) / float64(len(errs)), nil
}

// backprop computes gradients without touching the network. The hidden error
// is therefore propagated through the hidden→output weights as they stood
// before this update.
func (t *Trainer) backprop(input, target []float64) (*step, error) {
	n := t.net
	lr := n.hyper.LearningRate

	in := matrix.FromVector(input)
	hidden, output, err := n.forward(in)
	if err != nil {
		return nil, err
	}

	outputError, err := matrix.Subtract(matrix.FromVector(target), output)
	if err != nil {
		return nil, err
	}

	outputGradient := matrix.Map(output, matrix.SigmoidDerivative, true)
	if err := matrix.MultiplyElementwise(outputGradient, outputError); err != nil {
		return nil, err
	}
	matrix.Scale(outputGradient, lr)

	deltaHiddenOutput, err := matrix.Multiply(outputGradient, matrix.Transpose(hidden))
	if err != nil {
		return nil, err
	}

	hiddenError, err := matrix.Multiply(matrix.Transpose(n.weightsHiddenOutput), outputError)
	if err != nil {
		return nil, err
	}

	hiddenGradient := matrix.Map(hidden, matrix.SigmoidDerivative, true)
	if err := matrix.MultiplyElementwise(hiddenGradient, hiddenError); err != nil {
		return nil, err
	}
	matrix.Scale(hiddenGradient, lr)

	deltaInputHidden, err := matrix.Multiply(hiddenGradient, matrix.Transpose(in))
	if err != nil {
		return nil, err
	}

	return &step{
		outputError:       outputError,
		outputGradient:    outputGradient,
		hiddenGradient:    hiddenGradient,
		deltaHiddenOutput: deltaHiddenOutput,
		deltaInputHidden:  deltaInputHidden,
	}, nil
}

func (t *Trainer) apply(s *step) error {
	n := t.net
	if err := applyMomentum(n.weightsHiddenOutput, n.prevDeltaHiddenOutput, s.deltaHiddenOutput, n.hyper.Momentum); err != nil {
		return fmt.Errorf("hidden-output weights: %w", err)
	}
	// biases take the raw gradient, no momentum
	if err := matrix.Add(n.biasOutput, s.outputGradient); err != nil {
		return fmt.Errorf("output bias: %w", err)
	}
	if err := applyMomentum(n.weightsInputHidden, n.prevDeltaInputHidden, s.deltaInputHidden, n.hyper.Momentum); err != nil {
		return fmt.Errorf("input-hidden weights: %w", err)
	}
	if err := matrix.Add(n.biasHidden, s.hiddenGradient); err != nil {
		return fmt.Errorf("hidden bias: %w", err)
	}
	return nil
}

// applyMomentum performs applied = delta + momentum·prev; weights += applied;
// prev = applied. delta is consumed.
func applyMomentum(weights, prev, delta *matrix.Matrix, momentum float64) error {
	carry := prev.Clone()
	matrix.Scale(carry, momentum)
	if err := matrix.Add(delta, carry); err != nil {
		return err
	}
	if err := matrix.Add(weights, delta); err != nil {
		return err
	}
	return prev.CopyFrom(delta)
}
