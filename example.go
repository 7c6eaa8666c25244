package absa

// Special tokens of the BERT-style input layout:
//
//	[CLS] text tokens... [SEP] aspect tokens... [SEP]
const (
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
)

// Example is the narrow view of an input example the recognizer needs.
// TextTokens are the whole-word tokens of the reviewed text; Tokens is the
// full model input including special tokens and the appended aspect.
type Example interface {
	TextTokens() []string
	Tokens() []string
}

// TokenizedExample is an example after tokenization.
type TokenizedExample struct {
	Text   string
	Aspect string

	textTokens   []string
	aspectTokens []string
	tokens       []string

	subTokens []string
	alignment Alignment
}

// SubTokenized is implemented by examples whose model input was split into
// word pieces. Recognize merges the attention back to whole tokens with
// the returned alignment when the caller passes none.
type SubTokenized interface {
	Alignment() Alignment
}

// NewTokenizedExample lays out text and aspect tokens as a sentence pair.
func NewTokenizedExample(text, aspect string, textTokens, aspectTokens []string) *TokenizedExample {
	all := make([]string, 0, len(textTokens)+len(aspectTokens)+3)
	all = append(all, ClsToken)
	all = append(all, textTokens...)
	all = append(all, SepToken)
	all = append(all, aspectTokens...)
	all = append(all, SepToken)

	return &TokenizedExample{
		Text:         text,
		Aspect:       aspect,
		textTokens:   textTokens,
		aspectTokens: aspectTokens,
		tokens:       all,
	}
}

// TextTokens implements Example.
func (e *TokenizedExample) TextTokens() []string { return e.textTokens }

// Tokens implements Example.
func (e *TokenizedExample) Tokens() []string { return e.tokens }

// AspectTokens returns the tokens of the aspect term.
func (e *TokenizedExample) AspectTokens() []string { return e.aspectTokens }

// WithSubTokens records the word pieces the model actually saw.
// alignment[i] lists the positions in subTokens of Tokens()[i].
func (e *TokenizedExample) WithSubTokens(subTokens []string, alignment Alignment) *TokenizedExample {
	e.subTokens = subTokens
	e.alignment = alignment
	return e
}

// SubTokens returns the word pieces, or nil when words were never split.
func (e *TokenizedExample) SubTokens() []string { return e.subTokens }

// Alignment implements SubTokenized.
func (e *TokenizedExample) Alignment() Alignment { return e.alignment }

// Pattern is one salient attention "center" of an example: a weight per
// token and an importance used to rank patterns within the example.
type Pattern struct {
	Importance float64   `json:"importance"`
	Tokens     []string  `json:"tokens"`
	Weights    []float64 `json:"weights"`
}
