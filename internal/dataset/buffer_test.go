package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(i int) Sample {
	return NewSample([]float64{float64(i)}, []float64{float64(-i)})
}

func TestBufferEvictsOldest(t *testing.T) {
	b := NewBuffer(10)
	for i := 1; i <= 15; i++ {
		b.Push(numbered(i))
		assert.LessOrEqual(t, b.Len(), b.Cap())
	}
	require.Equal(t, 10, b.Len())

	want := make([]Sample, 0, 10)
	for i := 6; i <= 15; i++ {
		want = append(want, numbered(i))
	}
	assert.Equal(t, want, b.Samples())
}

func TestBufferCapacityPlusOne(t *testing.T) {
	b := NewBuffer(4)
	for i := 1; i <= 5; i++ {
		b.Push(numbered(i))
	}
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, numbered(2), b.At(0))
	assert.Equal(t, numbered(5), b.At(3))
}

func TestBufferRecentIsMostRecentFirst(t *testing.T) {
	b := NewBuffer(5)
	for i := 1; i <= 7; i++ {
		b.Push(numbered(i))
	}
	assert.Equal(t, []Sample{numbered(7), numbered(6), numbered(5)}, b.Recent(3))
	assert.Len(t, b.Recent(50), 5)
	assert.Nil(t, b.Recent(0))
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(3)
	b.Push(numbered(1))
	b.Push(numbered(2))
	b.Clear()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Samples())

	b.Push(numbered(9))
	assert.Equal(t, []Sample{numbered(9)}, b.Samples())
}

func TestBufferDefaultCapacity(t *testing.T) {
	assert.Equal(t, 100, NewBuffer(0).Cap())
}

func TestNewSampleCopies(t *testing.T) {
	in := []float64{1, 2}
	target := []float64{3}
	s := NewSample(in, target)
	in[0] = 100
	target[0] = 100
	assert.Equal(t, []float64{1, 2}, s.Input)
	assert.Equal(t, []float64{3}, s.Target)
}

func TestBufferAtOutOfRangePanics(t *testing.T) {
	b := NewBuffer(2)
	assert.Panics(t, func() { b.At(0) })
}
