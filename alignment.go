package absa

import (
	"errors"
	"fmt"
)

// ErrInvalidAlignment is returned for alignment tables that do not fit the
// tensor they are applied to.
var ErrInvalidAlignment = errors.New("absa: invalid alignment")

// Alignment maps whole tokens to sub-tokens: entry i lists the sub-token
// positions that word-piece tokenization produced for whole token i.
// A nil Alignment means the sequence was never split.
type Alignment [][]int

// Validate checks that the groups partition [0, subLen): every group is
// non-empty and every sub-token belongs to exactly one group.
func (a Alignment) Validate(subLen int) error {
	owner := make([]int, subLen)
	for i, group := range a {
		if len(group) == 0 {
			return fmt.Errorf("%w: token %d has no sub-tokens", ErrInvalidAlignment, i)
		}
		for _, j := range group {
			if j < 0 || j >= subLen {
				return fmt.Errorf("%w: token %d maps to sub-token %d, sequence has %d", ErrInvalidAlignment, i, j, subLen)
			}
			if owner[j] != 0 {
				return fmt.Errorf("%w: sub-token %d belongs to tokens %d and %d", ErrInvalidAlignment, j, owner[j]-1, i)
			}
			owner[j] = i + 1
		}
	}
	for j, o := range owner {
		if o == 0 {
			return fmt.Errorf("%w: sub-token %d belongs to no token", ErrInvalidAlignment, j)
		}
	}
	return nil
}

// MergeFunc merges sub-token attention into whole-token attention.
type MergeFunc func(x *Tensor, alignment Alignment) (*Tensor, error)

// MergeTensor merges the last two axes of x from sub-token to whole-token
// positions. Attention paid to a split word is the sum over its pieces
// (columns); attention paid by a split word is the mean over its pieces
// (rows). Leading axes (layers, heads) are kept.
func MergeTensor(x *Tensor, alignment Alignment) (*Tensor, error) {
	if alignment == nil {
		return x, nil
	}
	dims := x.Dims()
	if dims < 2 {
		return nil, fmt.Errorf("%w: merge needs at least 2 dims, got %v", ErrInvalidShape, x.shape)
	}
	rows, cols := x.shape[dims-2], x.shape[dims-1]
	if rows != cols {
		return nil, fmt.Errorf("%w: merge needs square trailing axes, got %v", ErrInvalidShape, x.shape)
	}
	if err := alignment.Validate(rows); err != nil {
		return nil, err
	}

	n := len(alignment)
	outShape := copyInts(x.shape)
	outShape[dims-2], outShape[dims-1] = n, n
	out := NewTensor(outShape...)

	inBlock, outBlock := rows*cols, n*n
	for b := 0; b < len(x.data)/inBlock; b++ {
		in := x.data[b*inBlock : (b+1)*inBlock]
		dst := out.data[b*outBlock : (b+1)*outBlock]
		for i, from := range alignment {
			for j, to := range alignment {
				sum := 0.0
				for _, r := range from {
					for _, c := range to {
						sum += in[r*cols+c]
					}
				}
				dst[i*n+j] = sum / float64(len(from))
			}
		}
	}
	return out, nil
}
