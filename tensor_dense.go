package absa

import (
	"fmt"

	"gorgonia.org/tensor"
)

// FromDense converts a gorgonia dense tensor into a *Tensor. Views are
// materialized first; float32 backings are widened to float64.
func FromDense(d *tensor.Dense) (*Tensor, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil dense tensor", ErrInvalidShape)
	}
	if d.IsMaterializable() {
		m, ok := d.Materialize().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("%w: cannot materialize %T", ErrInvalidShape, d)
		}
		d = m
	}
	if d.DataOrder().IsColMajor() {
		return nil, fmt.Errorf("%w: column-major tensors are not supported", ErrInvalidShape)
	}

	shape := []int(d.Shape())
	var data []float64
	switch backing := d.Data().(type) {
	case []float64:
		data = backing
	case []float32:
		data = make([]float64, len(backing))
		for i, v := range backing {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported dtype %v", ErrInvalidShape, d.Dtype())
	}
	return NewTensorFrom(data, shape...)
}

// ToDense copies t into a float64 gorgonia dense tensor.
func ToDense(t *Tensor) *tensor.Dense {
	return tensor.New(tensor.WithShape(t.Shape()...), tensor.WithBacking(t.Data()))
}
