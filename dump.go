package absa

import (
	"encoding/json"
	"fmt"
	"io"
)

// TensorDump is the JSON form of a tensor: shape plus flat row-major data.
type TensorDump struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Tensor converts the dump into a *Tensor. A nil dump yields nil.
func (d *TensorDump) Tensor() (*Tensor, error) {
	if d == nil {
		return nil, nil
	}
	return NewTensorFrom(d.Data, d.Shape...)
}

// ExampleDump is one example and its model output as written by an
// inference job.
type ExampleDump struct {
	Text           string      `json:"text,omitempty"`
	Aspect         string      `json:"aspect,omitempty"`
	TextTokens     []string    `json:"text_tokens"`
	AspectTokens   []string    `json:"aspect_tokens,omitempty"`
	Tokens         []string    `json:"tokens"`
	SubTokens      []string    `json:"sub_tokens,omitempty"`
	Alignment      Alignment   `json:"alignment,omitempty"`
	Scores         *TensorDump `json:"scores,omitempty"`
	Attentions     *TensorDump `json:"attentions"`
	AttentionGrads *TensorDump `json:"attention_grads"`
}

// ReadExampleDumps decodes either a single dump object or an array of them.
func ReadExampleDumps(r io.Reader) ([]ExampleDump, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding example dump: %w", err)
	}

	if len(raw) > 0 && raw[0] == '[' {
		var dumps []ExampleDump
		if err := json.Unmarshal(raw, &dumps); err != nil {
			return nil, fmt.Errorf("decoding example dumps: %w", err)
		}
		return dumps, nil
	}

	var dump ExampleDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, fmt.Errorf("decoding example dump: %w", err)
	}
	return []ExampleDump{dump}, nil
}

// Example rebuilds the tokenized example. Tokens are taken as dumped, so
// inputs laid out differently from NewTokenizedExample keep their layout.
func (d ExampleDump) Example() *TokenizedExample {
	e := &TokenizedExample{
		Text:         d.Text,
		Aspect:       d.Aspect,
		textTokens:   d.TextTokens,
		aspectTokens: d.AspectTokens,
		tokens:       d.Tokens,
	}
	if d.Alignment != nil {
		e.WithSubTokens(d.SubTokens, d.Alignment)
	}
	return e
}

// Output rebuilds the attention output.
func (d ExampleDump) Output() (AttentionOutput, error) {
	var (
		out AttentionOutput
		err error
	)
	if out.Scores, err = d.Scores.Tensor(); err != nil {
		return out, fmt.Errorf("scores: %w", err)
	}
	if out.Attentions, err = d.Attentions.Tensor(); err != nil {
		return out, fmt.Errorf("attentions: %w", err)
	}
	if out.AttentionGrads, err = d.AttentionGrads.Tensor(); err != nil {
		return out, fmt.Errorf("attention grads: %w", err)
	}
	return out, nil
}

// BatchItem converts the dump into a recognizer input. The alignment
// travels with the example.
func (d ExampleDump) BatchItem() (BatchItem, error) {
	out, err := d.Output()
	if err != nil {
		return BatchItem{}, err
	}
	if len(d.SubTokens) > 0 && out.Attentions != nil && len(d.SubTokens) != out.SeqLen() {
		return BatchItem{}, fmt.Errorf("%w: %d sub-tokens, attention sequence length %d", ErrShapeMismatch, len(d.SubTokens), out.SeqLen())
	}
	return BatchItem{Example: d.Example(), Output: out}, nil
}
