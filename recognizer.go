package absa

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// Pattern recognition turns the attention bundle of one example into a few
// ranked "patterns": per-token weight vectors showing which words the model
// leaned on, each with an importance used for ranking.
//
// PIPELINE:
//
//   attentions ⊙ attention_grads        [layers, heads, seq, seq]
//        │  merge sub-tokens (optional)
//        ▼
//   Σ layers, heads                      [seq, seq]
//        │
//        ├── row 0 ([CLS]) at text columns, / max      → importance w
//        │
//        └── text rows × text columns                  → pattern matrix P
//              diagonal := row max, row /= row max
//              (scaled)  row i *= w[i]
//
//   BuildPatterns: rank candidates by w (stable, descending), drop w == 0,
//   keep the top MaxPatterns.
//
// The [CLS] row is what the classifier reads, so its attention to each
// text token serves as that token's importance.
//
// ===========================================================================

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// PatternRecognizer extracts patterns from the attention output of one
// example.
type PatternRecognizer interface {
	Recognize(example Example, output AttentionOutput, alignment Alignment) ([]Pattern, error)
}

// BasicPatternRecognizer implements the attention-gradient pattern
// recognizer. It is immutable after construction and safe for concurrent
// use.
type BasicPatternRecognizer struct {
	config RecognizerConfig
	merge  MergeFunc
	logger *zap.Logger
}

var _ PatternRecognizer = (*BasicPatternRecognizer)(nil)

// Option configures a BasicPatternRecognizer.
type Option func(*BasicPatternRecognizer)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *BasicPatternRecognizer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMerge replaces the sub-token merge step. Defaults to MergeTensor.
func WithMerge(fn MergeFunc) Option {
	return func(r *BasicPatternRecognizer) {
		if fn != nil {
			r.merge = fn
		}
	}
}

// NewBasicPatternRecognizer creates a recognizer from a validated config.
func NewBasicPatternRecognizer(cfg RecognizerConfig, opts ...Option) (*BasicPatternRecognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &BasicPatternRecognizer{
		config: cfg,
		merge:  MergeTensor,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the recognizer configuration.
func (r *BasicPatternRecognizer) Config() RecognizerConfig {
	return r.config
}

// Recognize chains TextTokensMask, Transform and BuildPatterns. Every
// returned pattern carries the example's text tokens. A nil alignment
// falls back to the example's own when it implements SubTokenized.
func (r *BasicPatternRecognizer) Recognize(example Example, output AttentionOutput, alignment Alignment) ([]Pattern, error) {
	if s, ok := example.(SubTokenized); ok && alignment == nil {
		alignment = s.Alignment()
	}
	mask, err := TextTokensMask(example)
	if err != nil {
		return nil, err
	}
	w, vectors, err := r.Transform(output, mask, alignment)
	if err != nil {
		return nil, err
	}

	tokens := example.TextTokens()
	if len(w) != len(tokens) {
		return nil, fmt.Errorf("%w: %d candidates for %d text tokens", ErrShapeMismatch, len(w), len(tokens))
	}
	return r.BuildPatterns(w, tokens, vectors)
}

// TextTokensMask marks the positions of the text tokens inside the full
// token sequence. Position 0 holds [CLS], so the text occupies positions
// 1..len(TextTokens()); the separator and the appended aspect are false.
func TextTokensMask(example Example) ([]bool, error) {
	tokens, text := example.Tokens(), example.TextTokens()
	if len(tokens) < len(text)+1 {
		return nil, fmt.Errorf("%w: %d tokens cannot hold [CLS] plus %d text tokens", ErrShapeMismatch, len(tokens), len(text))
	}

	mask := make([]bool, len(tokens))
	for i := 1; i <= len(text); i++ {
		mask[i] = true
	}
	return mask, nil
}

// Transform reduces the attention output to candidate importances w and
// the pattern matrix (row i belongs to candidate i). textMask covers whole
// tokens, as TextTokensMask builds it, so with an alignment its length is
// len(alignment) rather than the sub-token sequence length.
func (r *BasicPatternRecognizer) Transform(output AttentionOutput, textMask []bool, alignment Alignment) ([]float64, [][]float64, error) {
	if err := output.Validate(); err != nil {
		return nil, nil, err
	}

	x, err := Mul(output.Attentions, output.AttentionGrads)
	if err != nil {
		return nil, nil, err
	}
	if alignment != nil {
		if x, err = r.merge(x, alignment); err != nil {
			return nil, nil, fmt.Errorf("merging sub-tokens: %w", err)
		}
		if x == nil {
			return nil, nil, fmt.Errorf("%w: merge returned no tensor", ErrMissingTensor)
		}
	}
	x, err = SumLeading(x)
	if err != nil {
		return nil, nil, err
	}

	seqLen := x.shape[0]
	if len(textMask) != seqLen {
		return nil, nil, fmt.Errorf("%w: text mask length %d, sequence length %d", ErrShapeMismatch, len(textMask), seqLen)
	}

	sub, err := SelectSquare(x, textMask)
	if err != nil {
		return nil, nil, err
	}

	idx := indicesOf(textMask)
	w := make([]float64, len(idx))
	for k, j := range idx {
		w[k] = x.At(0, j)
	}
	normalizeImportance(w)

	patterns := sub.Rows()
	for i, row := range patterns {
		row[i] = maxOf(row)
		scaleToMax(row)
	}

	if r.config.IsScaled {
		for i, row := range patterns {
			floats.Scale(w[i], row)
		}
	}
	if r.config.IsRounded {
		roundWeights(w)
		for _, row := range patterns {
			roundWeights(row)
		}
	}

	r.logger.Debug("transformed attention output",
		zap.Int("seq_len", seqLen),
		zap.Int("text_tokens", len(idx)),
		zap.Bool("merged", alignment != nil))
	return w, patterns, nil
}

// BuildPatterns ranks candidates by importance and returns at most
// MaxPatterns of them. Candidates with zero importance are never returned;
// ties keep their original order. Every pattern shares tokens.
func (r *BasicPatternRecognizer) BuildPatterns(w []float64, tokens []string, vectors [][]float64) ([]Pattern, error) {
	if len(w) != len(vectors) {
		return nil, fmt.Errorf("%w: %d importances for %d pattern vectors", ErrShapeMismatch, len(w), len(vectors))
	}

	order := make([]int, 0, len(w))
	for i, v := range w {
		if v != 0 {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(w[b], w[a])
	})
	if len(order) > r.config.MaxPatterns {
		order = order[:r.config.MaxPatterns]
	}

	patterns := make([]Pattern, len(order))
	for k, i := range order {
		weights := slices.Clone(vectors[i])
		if r.config.IsScaled {
			scaleToMax(weights)
		}
		if r.config.IsRounded {
			roundWeights(weights)
		}
		patterns[k] = Pattern{
			Importance: w[i],
			Tokens:     tokens,
			Weights:    weights,
		}
	}

	r.logger.Debug("built patterns",
		zap.Int("candidates", len(w)),
		zap.Int("patterns", len(patterns)))
	return patterns, nil
}

// ===========================================================================
// HELPERS
// ===========================================================================

// scaleToMax divides v by its maximum in place. A maximum of zero or below
// leaves v unchanged.
func scaleToMax(v []float64) {
	m := maxOf(v)
	if m <= 0 {
		return
	}
	for i := range v {
		v[i] /= m
	}
}

// normalizeImportance divides w by its maximum whenever that is non-zero.
// An all-negative w therefore flips sign and its ranking reverses.
func normalizeImportance(w []float64) {
	m := maxOf(w)
	if m == 0 {
		return
	}
	for i := range w {
		w[i] /= m
	}
}

// roundWeights rounds v to two decimals in place (half to even).
func roundWeights(v []float64) {
	for i, x := range v {
		v[i] = math.RoundToEven(x*100) / 100
	}
}

func maxOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Max(v)
}
