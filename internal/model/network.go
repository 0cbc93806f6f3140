package model

import (
	"fmt"
	"math/rand"

	"adaptive-predictor/internal/matrix"
)

// Hyper holds the update-rule hyperparameters.
type Hyper struct {
	LearningRate float64
	Momentum     float64
}

// DefaultHyper returns learning rate 0.1 and momentum 0.9.
func DefaultHyper() Hyper {
	return Hyper{LearningRate: 0.1, Momentum: 0.9}
}

// Network is a feed-forward network with one sigmoid hidden layer and a
// sigmoid output layer. Shapes are fixed at construction.
type Network struct {
	inputSize  int
	hiddenSize int
	outputSize int
	hyper      Hyper

	weightsInputHidden  *matrix.Matrix // hidden × input
	weightsHiddenOutput *matrix.Matrix // output × hidden
	biasHidden          *matrix.Matrix // hidden × 1
	biasOutput          *matrix.Matrix // output × 1

	// last applied (momentum-inclusive) weight updates
	prevDeltaInputHidden  *matrix.Matrix
	prevDeltaHiddenOutput *matrix.Matrix
}

// NewNetwork constructs a network with weights and biases drawn from rng.
// A nil rng is replaced by a generator seeded with 42.
func NewNetwork(inputSize, hiddenSize, outputSize int, hyper Hyper, rng *rand.Rand) (*Network, error) {
	if inputSize <= 0 || hiddenSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("model: layer sizes must be > 0 (got %d, %d, %d)", inputSize, hiddenSize, outputSize)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(42))
	}
	return &Network{
		inputSize:             inputSize,
		hiddenSize:            hiddenSize,
		outputSize:            outputSize,
		hyper:                 hyper,
		weightsInputHidden:    matrix.NewRandom(hiddenSize, inputSize, rng),
		weightsHiddenOutput:   matrix.NewRandom(outputSize, hiddenSize, rng),
		biasHidden:            matrix.NewRandom(hiddenSize, 1, rng),
		biasOutput:            matrix.NewRandom(outputSize, 1, rng),
		prevDeltaInputHidden:  matrix.New(hiddenSize, inputSize, 0),
		prevDeltaHiddenOutput: matrix.New(outputSize, hiddenSize, 0),
	}, nil
}

// Sizes returns the input, hidden and output layer widths.
func (n *Network) Sizes() (input, hidden, output int) {
	return n.inputSize, n.hiddenSize, n.outputSize
}

// Hyper returns the network's update hyperparameters.
func (n *Network) Hyper() Hyper {
	return n.hyper
}

// ResetMomentum zeroes the carried-over weight updates. Weights and biases
// are left as they are.
func (n *Network) ResetMomentum() {
	n.prevDeltaInputHidden.Zero()
	n.prevDeltaHiddenOutput.Zero()
}

// Predict runs forward inference. It does not mutate the network.
func (n *Network) Predict(input []float64) ([]float64, error) {
	if len(input) != n.inputSize {
		return nil, fmt.Errorf("%w: input has %d values, network expects %d", ErrDimensionMismatch, len(input), n.inputSize)
	}
	_, output, err := n.forward(matrix.FromVector(input))
	if err != nil {
		return nil, err
	}
	return output.Vector()
}

// forward returns freshly allocated hidden and output activations.
func (n *Network) forward(input *matrix.Matrix) (hidden, output *matrix.Matrix, err error) {
	hidden, err = layer(n.weightsInputHidden, n.biasHidden, input)
	if err != nil {
		return nil, nil, fmt.Errorf("hidden layer: %w", err)
	}
	output, err = layer(n.weightsHiddenOutput, n.biasOutput, hidden)
	if err != nil {
		return nil, nil, fmt.Errorf("output layer: %w", err)
	}
	return hidden, output, nil
}

func layer(weights, bias, in *matrix.Matrix) (*matrix.Matrix, error) {
	z, err := matrix.Multiply(weights, in)
	if err != nil {
		return nil, err
	}
	if err := matrix.Add(z, bias); err != nil {
		return nil, err
	}
	return matrix.Map(z, matrix.Sigmoid, false), nil
}
