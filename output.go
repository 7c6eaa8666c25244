package absa

import (
	"errors"
	"fmt"
)

// ErrMissingTensor is returned when a tensor the pipeline needs is absent.
var ErrMissingTensor = errors.New("absa: missing tensor")

// AttentionOutput is the model output for one example after a forward and
// backward pass. Every field is optional; pattern recognition reads only
// Attentions and AttentionGrads and never mutates either.
type AttentionOutput struct {
	Scores         *Tensor // final classification scores
	Attentions     *Tensor // [layers, heads, seq, seq]
	AttentionGrads *Tensor // d(output)/d(attention), same shape as Attentions
	HiddenStates   *Tensor
}

// Validate checks that attentions and their gradients are present, 4-D,
// square in the last two axes and identically shaped.
func (o AttentionOutput) Validate() error {
	if o.Attentions == nil {
		return fmt.Errorf("%w: attentions", ErrMissingTensor)
	}
	if o.AttentionGrads == nil {
		return fmt.Errorf("%w: attention grads", ErrMissingTensor)
	}

	shape := o.Attentions.shape
	if len(shape) != 4 {
		return fmt.Errorf("%w: attentions must be [layers, heads, seq, seq], got %v", ErrInvalidShape, shape)
	}
	if shape[2] != shape[3] {
		return fmt.Errorf("%w: attention matrices must be square, got %v", ErrInvalidShape, shape)
	}
	if !shapeEqual(shape, o.AttentionGrads.shape) {
		return fmt.Errorf("%w: attentions %v vs grads %v", ErrShapeMismatch, shape, o.AttentionGrads.shape)
	}
	return nil
}

// SeqLen returns the sequence length of the attention tensors, or 0 when
// attentions are absent.
func (o AttentionOutput) SeqLen() int {
	if o.Attentions == nil || o.Attentions.Dims() == 0 {
		return 0
	}
	return o.Attentions.shape[o.Attentions.Dims()-1]
}
