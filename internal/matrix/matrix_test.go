package matrix

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromRows(rows [][]float64) *Matrix {
	m := New(len(rows), len(rows[0]), 0)
	for i, row := range rows {
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	return m
}

func rowsOf(m *Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

func TestNewFill(t *testing.T) {
	m := New(2, 3, 0.25)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	for _, row := range rowsOf(m) {
		for _, v := range row {
			assert.Equal(t, 0.25, v)
		}
	}
}

func TestNewRandomRangeAndSeed(t *testing.T) {
	a := NewRandom(8, 8, rand.New(rand.NewSource(3)))
	b := NewRandom(8, 8, rand.New(rand.NewSource(3)))
	assert.Equal(t, rowsOf(a), rowsOf(b), "same seed must give same entries")
	for _, row := range rowsOf(a) {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, -0.5)
			assert.LessOrEqual(t, v, 0.5)
		}
	}
}

func TestMultiply(t *testing.T) {
	a := fromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	b := fromRows([][]float64{{7, 8}, {9, 10}, {11, 12}})
	got, err := Multiply(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{58, 64}, {139, 154}}, rowsOf(got))
}

func TestMultiplyShapeMismatch(t *testing.T) {
	a := New(2, 3, 1)
	b := New(2, 3, 1)
	_, err := Multiply(a, b)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestAddInPlace(t *testing.T) {
	a := fromRows([][]float64{{1, 2}, {3, 4}})
	b := fromRows([][]float64{{10, 20}, {30, 40}})
	require.NoError(t, Add(a, b))
	assert.Equal(t, [][]float64{{11, 22}, {33, 44}}, rowsOf(a))
	assert.Equal(t, [][]float64{{10, 20}, {30, 40}}, rowsOf(b))

	err := Add(a, New(2, 1, 0))
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, [][]float64{{11, 22}, {33, 44}}, rowsOf(a), "failed add must not mutate")
}

func TestSubtractReturnsNew(t *testing.T) {
	a := fromRows([][]float64{{5}, {7}})
	b := fromRows([][]float64{{1}, {10}})
	got, err := Subtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{4}, {-3}}, rowsOf(got))
	assert.Equal(t, [][]float64{{5}, {7}}, rowsOf(a))

	_, err = Subtract(a, New(1, 2, 0))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTranspose(t *testing.T) {
	a := fromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	got := Transpose(a)
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, rowsOf(got))

	got.Set(0, 0, 99)
	assert.Equal(t, 1.0, a.At(0, 0), "transpose must not alias its operand")
}

func TestMultiplyElementwiseAndScale(t *testing.T) {
	a := fromRows([][]float64{{1, 2}, {3, 4}})
	b := fromRows([][]float64{{2, 0.5}, {-1, 0}})
	require.NoError(t, MultiplyElementwise(a, b))
	assert.Equal(t, [][]float64{{2, 1}, {-3, 0}}, rowsOf(a))

	Scale(a, 0.5)
	assert.Equal(t, [][]float64{{1, 0.5}, {-1.5, 0}}, rowsOf(a))

	require.ErrorIs(t, MultiplyElementwise(a, New(3, 3, 0)), ErrShapeMismatch)
}

func TestMap(t *testing.T) {
	a := fromRows([][]float64{{0}, {0.5}})

	fresh := Map(a, SigmoidDerivative, true)
	assert.Equal(t, [][]float64{{0}, {0.25}}, rowsOf(fresh))
	assert.Equal(t, [][]float64{{0}, {0.5}}, rowsOf(a), "intoNew must leave operand alone")

	same := Map(a, Sigmoid, false)
	assert.Same(t, a, same)
	assert.InDelta(t, 0.5, a.At(0, 0), 1e-12)
	assert.InDelta(t, 0.6224593312, a.At(1, 0), 1e-9)
}

func TestVectorConversions(t *testing.T) {
	in := []float64{1, 2, 3}
	m := FromVector(in)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)

	in[0] = 42
	out, err := m.Vector()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out)

	_, err = New(2, 2, 0).Vector()
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCopyFromAndZero(t *testing.T) {
	a := New(2, 2, 1)
	b := fromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, a.CopyFrom(b))
	assert.Equal(t, rowsOf(b), rowsOf(a))

	b.Set(0, 0, 7)
	assert.Equal(t, 1.0, a.At(0, 0))

	a.Zero()
	assert.Equal(t, [][]float64{{0, 0}, {0, 0}}, rowsOf(a))
	require.ErrorIs(t, a.CopyFrom(New(1, 2, 0)), ErrShapeMismatch)
}

func TestActivationString(t *testing.T) {
	assert.Equal(t, "sigmoid", Sigmoid.String())
	assert.Equal(t, "sigmoid-derivative", SigmoidDerivative.String())
}
