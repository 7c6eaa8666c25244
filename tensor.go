package absa

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// A small row-major tensor holding the attention bundle of one example.
// Attention and gradient tensors arrive as [layers, heads, seq, seq]; the
// pattern pipeline only ever needs element-wise products, a reduction over
// the leading axes, and row/column selection on the remaining matrix.
//
// Index helpers (At, Set, Row) panic with ErrInvalidIndex on bad indices:
// those are programmer bugs.
// Anything driven by caller-supplied shapes returns an error instead.
//
// ===========================================================================

var (
	// ErrShapeMismatch indicates incompatible tensor shapes for an operation.
	ErrShapeMismatch = errors.New("tensor: shape mismatch")

	// ErrInvalidShape indicates an invalid tensor shape.
	ErrInvalidShape = errors.New("tensor: invalid shape")

	// ErrInvalidIndex indicates an out-of-bounds index access.
	ErrInvalidIndex = errors.New("tensor: invalid index")
)

// Tensor represents a multi-dimensional array of float64 values.
// It stores data in row-major (C-contiguous) order.
//
// Tensor is not safe for concurrent mutation. The pattern pipeline only
// reads its inputs, so sharing a Tensor between readers is fine.
type Tensor struct {
	data  []float64
	shape []int
}

// NewTensor creates a tensor with the given shape, initialized to zero.
// Panics if shape is invalid (empty or contains non-positive dimensions).
func NewTensor(shape ...int) *Tensor {
	size, err := shapeSize(shape)
	if err != nil {
		panic(err.Error())
	}
	return &Tensor{
		data:  make([]float64, size),
		shape: copyInts(shape),
	}
}

// NewTensorFrom wraps data (copied) in a tensor of the given shape.
func NewTensorFrom(data []float64, shape ...int) (*Tensor, error) {
	size, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if size != len(data) {
		return nil, fmt.Errorf("%w: %d values for shape %v (size %d)", ErrShapeMismatch, len(data), shape, size)
	}
	t := &Tensor{
		data:  make([]float64, size),
		shape: copyInts(shape),
	}
	copy(t.data, data)
	return t, nil
}

// NewMatrix builds a 2-D tensor from rows. All rows must have equal length.
func NewMatrix(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidShape)
	}
	cols := len(rows[0])
	t := NewTensor(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), cols)
		}
		copy(t.data[i*cols:], row)
	}
	return t, nil
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int {
	return copyInts(t.shape)
}

// Dims returns the number of dimensions (rank) of the tensor.
func (t *Tensor) Dims() int {
	return len(t.shape)
}

// Size returns the total number of elements in the tensor.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data returns a copy of the flat row-major values.
func (t *Tensor) Data() []float64 {
	out := make([]float64, len(t.data))
	copy(out, t.data)
	return out
}

// At returns the element at the given indices.
// Panics if indices are invalid.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.flatIndex(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are invalid.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.flatIndex(indices)] = value
}

func (t *Tensor) flatIndex(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Errorf("%w: expected %d indices, got %d", ErrInvalidIndex, len(t.shape), len(indices)))
	}

	idx := 0
	stride := 1
	for i := len(indices) - 1; i >= 0; i-- {
		if indices[i] < 0 || indices[i] >= t.shape[i] {
			panic(fmt.Errorf("%w: index[%d]=%d out of bounds [0,%d)", ErrInvalidIndex, i, indices[i], t.shape[i]))
		}
		idx += indices[i] * stride
		stride *= t.shape[i]
	}
	return idx
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		data:  t.Data(),
		shape: copyInts(t.shape),
	}
}

// Reshape returns a view of the tensor with a different shape.
// The total number of elements must remain the same.
// The returned tensor shares the underlying data.
func (t *Tensor) Reshape(newShape ...int) (*Tensor, error) {
	size, err := shapeSize(newShape)
	if err != nil {
		return nil, err
	}
	if size != len(t.data) {
		return nil, fmt.Errorf("%w: cannot reshape size %d to %v", ErrShapeMismatch, len(t.data), newShape)
	}
	return &Tensor{data: t.data, shape: copyInts(newShape)}, nil
}

// Row returns a copy of row i of a 2-D tensor.
func (t *Tensor) Row(i int) []float64 {
	if len(t.shape) != 2 {
		panic("tensor: Row requires 2D tensor")
	}
	if i < 0 || i >= t.shape[0] {
		panic(fmt.Errorf("%w: row %d out of bounds [0,%d)", ErrInvalidIndex, i, t.shape[0]))
	}
	cols := t.shape[1]
	out := make([]float64, cols)
	copy(out, t.data[i*cols:(i+1)*cols])
	return out
}

// Rows returns a 2-D tensor as a slice of row copies.
func (t *Tensor) Rows() [][]float64 {
	if len(t.shape) != 2 {
		panic("tensor: Rows requires 2D tensor")
	}
	out := make([][]float64, t.shape[0])
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// String returns a string representation of the tensor for debugging.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v, size=%d)", t.shape, len(t.data))
}

// ===========================================================================
// OPERATIONS
// ===========================================================================

// Mul performs element-wise multiplication: out = a * b (Hadamard product).
func Mul(a, b *Tensor) (*Tensor, error) {
	if !shapeEqual(a.shape, b.shape) {
		return nil, fmt.Errorf("%w: cannot multiply shapes %v and %v", ErrShapeMismatch, a.shape, b.shape)
	}

	out := NewTensor(a.shape...)
	floats.MulTo(out.data, a.data, b.data)
	return out, nil
}

// SumLeading sums over every axis except the last two, returning a 2-D
// tensor. For attentions shaped [layers, heads, seq, seq] this collapses
// all layers and heads into one seq×seq matrix.
func SumLeading(t *Tensor) (*Tensor, error) {
	if len(t.shape) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 dims, got %v", ErrInvalidShape, t.shape)
	}

	rows, cols := t.shape[len(t.shape)-2], t.shape[len(t.shape)-1]
	block := rows * cols
	out := NewTensor(rows, cols)
	for off := 0; off < len(t.data); off += block {
		floats.Add(out.data, t.data[off:off+block])
	}
	return out, nil
}

// SelectSquare keeps the rows and columns of a square 2-D tensor where keep
// is true. len(keep) must match the matrix size.
func SelectSquare(t *Tensor, keep []bool) (*Tensor, error) {
	if len(t.shape) != 2 || t.shape[0] != t.shape[1] {
		return nil, fmt.Errorf("%w: SelectSquare requires a square matrix, got %v", ErrInvalidShape, t.shape)
	}
	if len(keep) != t.shape[0] {
		return nil, fmt.Errorf("%w: mask length %d, matrix size %d", ErrShapeMismatch, len(keep), t.shape[0])
	}

	idx := indicesOf(keep)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: mask selects no positions", ErrInvalidShape)
	}
	out := NewTensor(len(idx), len(idx))
	for r, i := range idx {
		for c, j := range idx {
			out.Set(t.At(i, j), r, c)
		}
	}
	return out, nil
}

// ===========================================================================
// HELPERS
// ===========================================================================

func shapeSize(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("%w: shape cannot be empty", ErrInvalidShape)
	}
	size := 1
	for i, dim := range shape {
		if dim <= 0 {
			return 0, fmt.Errorf("%w: shape[%d] must be positive, got %d", ErrInvalidShape, i, dim)
		}
		size *= dim
	}
	return size, nil
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyInts(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}

func indicesOf(mask []bool) []int {
	idx := make([]int, 0, len(mask))
	for i, ok := range mask {
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}
