package matrix

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch reports operands whose dimensions are incompatible.
var ErrShapeMismatch = errors.New("matrix: shape mismatch")

// Matrix is a dense, fixed-shape rows×cols buffer of float64.
type Matrix struct {
	d *mat.Dense
}

// New returns a rows×cols matrix with every entry set to fill.
// rows and cols must be positive.
func New(rows, cols int, fill float64) *Matrix {
	d := mat.NewDense(rows, cols, nil)
	if fill != 0 {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				d.Set(i, j, fill)
			}
		}
	}
	return &Matrix{d: d}
}

// NewRandom returns a rows×cols matrix whose entries are drawn independently
// and uniformly from [-0.5, 0.5]. This is the parameter initialisation policy.
func NewRandom(rows, cols int, rng *rand.Rand) *Matrix {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * 0.5
	}
	return &Matrix{d: mat.NewDense(rows, cols, data)}
}

// FromVector converts v into a len(v)×1 column vector. v is copied and must
// be non-empty.
func FromVector(v []float64) *Matrix {
	data := append([]float64(nil), v...)
	return &Matrix{d: mat.NewDense(len(data), 1, data)}
}

// Vector flattens a column vector into a fresh slice.
func (m *Matrix) Vector() ([]float64, error) {
	if _, c := m.d.Dims(); c != 1 {
		r, _ := m.d.Dims()
		return nil, fmt.Errorf("%w: vector from %dx%d", ErrShapeMismatch, r, c)
	}
	return mat.Col(nil, 0, m.d), nil
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (rows, cols int) {
	return m.d.Dims()
}

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.d.Set(i, j, v)
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{d: mat.DenseCopyOf(m.d)}
}

// CopyFrom overwrites m with the entries of src.
func (m *Matrix) CopyFrom(src *Matrix) error {
	if err := sameShape("copy", m, src); err != nil {
		return err
	}
	m.d.Copy(src.d)
	return nil
}

// Zero sets every entry of m to zero.
func (m *Matrix) Zero() {
	m.d.Zero()
}

// Multiply returns the matrix product a·b.
func Multiply(a, b *Matrix) (*Matrix, error) {
	ar, ac := a.d.Dims()
	br, bc := b.d.Dims()
	if ac != br {
		return nil, fmt.Errorf("%w: multiply %dx%d by %dx%d", ErrShapeMismatch, ar, ac, br, bc)
	}
	out := mat.NewDense(ar, bc, nil)
	out.Mul(a.d, b.d)
	return &Matrix{d: out}, nil
}

// Add adds b into a in place.
func Add(a, b *Matrix) error {
	if err := sameShape("add", a, b); err != nil {
		return err
	}
	a.d.Add(a.d, b.d)
	return nil
}

// Subtract returns a new matrix a - b.
func Subtract(a, b *Matrix) (*Matrix, error) {
	if err := sameShape("subtract", a, b); err != nil {
		return nil, err
	}
	r, c := a.d.Dims()
	out := mat.NewDense(r, c, nil)
	out.Sub(a.d, b.d)
	return &Matrix{d: out}, nil
}

// Transpose returns a new matrix with rows and columns swapped.
func Transpose(a *Matrix) *Matrix {
	return &Matrix{d: mat.DenseCopyOf(a.d.T())}
}

// MultiplyElementwise replaces a with the Hadamard product a ⊙ b.
func MultiplyElementwise(a, b *Matrix) error {
	if err := sameShape("multiply elementwise", a, b); err != nil {
		return err
	}
	a.d.MulElem(a.d, b.d)
	return nil
}

// Scale multiplies every entry of a by k in place.
func Scale(a *Matrix, k float64) {
	a.d.Scale(k, a.d)
}

// Map applies fn to every entry of a. With intoNew set, a is left untouched
// and the result is returned as a new matrix; otherwise a is mutated and
// returned.
func Map(a *Matrix, fn Activation, intoNew bool) *Matrix {
	dst := a
	if intoNew {
		r, c := a.d.Dims()
		dst = &Matrix{d: mat.NewDense(r, c, nil)}
	}
	dst.d.Apply(func(_, _ int, v float64) float64 {
		return fn.Apply(v)
	}, a.d)
	return dst
}

func sameShape(op string, a, b *Matrix) error {
	ar, ac := a.d.Dims()
	br, bc := b.d.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("%w: %s %dx%d and %dx%d", ErrShapeMismatch, op, ar, ac, br, bc)
	}
	return nil
}
