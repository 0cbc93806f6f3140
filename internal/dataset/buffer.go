package dataset

// Sample is one observed (input, target) pair.
type Sample struct {
	Input  []float64
	Target []float64
}

// NewSample copies input and target so later caller writes cannot reach
// the stored sample.
func NewSample(input, target []float64) Sample {
	return Sample{
		Input:  append([]float64(nil), input...),
		Target: append([]float64(nil), target...),
	}
}

const defaultBufferCapacity = 100

// Buffer is a bounded, insertion-ordered sample history. Once full, each
// push evicts the oldest sample.
type Buffer struct {
	items []Sample
	head  int // index of the oldest sample
	n     int
}

// NewBuffer returns an empty buffer holding at most capacity samples.
// Non-positive capacities fall back to 100.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &Buffer{items: make([]Sample, capacity)}
}

// Push appends s, evicting the oldest sample when the buffer is full.
func (b *Buffer) Push(s Sample) {
	capacity := len(b.items)
	if b.n < capacity {
		b.items[(b.head+b.n)%capacity] = s
		b.n++
		return
	}
	b.items[b.head] = s
	b.head = (b.head + 1) % capacity
}

// Len returns the number of stored samples.
func (b *Buffer) Len() int { return b.n }

// Cap returns the maximum number of stored samples.
func (b *Buffer) Cap() int { return len(b.items) }

// At returns the i-th stored sample, 0 being the oldest.
func (b *Buffer) At(i int) Sample {
	if i < 0 || i >= b.n {
		panic("dataset: buffer index out of range")
	}
	return b.items[(b.head+i)%len(b.items)]
}

// Recent returns up to n samples, most recently pushed first.
func (b *Buffer) Recent(n int) []Sample {
	if n > b.n {
		n = b.n
	}
	if n <= 0 {
		return nil
	}
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		out[i] = b.At(b.n - 1 - i)
	}
	return out
}

// Samples returns the stored samples oldest first.
func (b *Buffer) Samples() []Sample {
	out := make([]Sample, b.n)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}

// Clear drops every stored sample.
func (b *Buffer) Clear() {
	for i := range b.items {
		b.items[i] = Sample{}
	}
	b.head = 0
	b.n = 0
}
