package absa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleDump = `{
  "text": "great fans",
  "aspect": "slack",
  "text_tokens": ["great", "fans"],
  "tokens": ["[CLS]", "great", "fans", "[SEP]"],
  "attentions": {"shape": [1, 1, 4, 4], "data": [0,1,2,0, 0,1,3,0, 0,2,4,0, 0,0,0,0]},
  "attention_grads": {"shape": [1, 1, 4, 4], "data": [1,1,1,1, 1,1,1,1, 1,1,1,1, 1,1,1,1]}
}`

func TestReadExampleDumps_Single(t *testing.T) {
	dumps, err := ReadExampleDumps(strings.NewReader(singleDump))
	require.NoError(t, err)
	require.Len(t, dumps, 1)

	d := dumps[0]
	assert.Equal(t, "slack", d.Aspect)
	assert.Nil(t, d.Alignment)

	out, err := d.Output()
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	assert.Nil(t, out.Scores)
	assert.Equal(t, 4.0, out.Attentions.At(0, 0, 2, 2))

	r := newRecognizer(t, RecognizerConfig{MaxPatterns: 3})
	patterns, err := r.Recognize(d.Example(), out, d.Alignment)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5}, importances(patterns))
}

func TestReadExampleDumps_Array(t *testing.T) {
	dumps, err := ReadExampleDumps(strings.NewReader("[" + singleDump + "," + singleDump + "]"))
	require.NoError(t, err)
	assert.Len(t, dumps, 2)
}

func TestReadExampleDumps_Alignment(t *testing.T) {
	in := `{"text_tokens": ["playing"], "tokens": ["[CLS]", "playing", "[SEP]"], "alignment": [[0], [1, 2], [3]]}`
	dumps, err := ReadExampleDumps(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, Alignment{{0}, {1, 2}, {3}}, dumps[0].Alignment)
}

func TestExampleDump_ExampleCarriesSubTokens(t *testing.T) {
	in := `{
  "text": "playing",
  "aspect": "game",
  "text_tokens": ["playing"],
  "aspect_tokens": ["game"],
  "tokens": ["[CLS]", "playing", "[SEP]", "game", "[SEP]"],
  "sub_tokens": ["[CLS]", "play", "##ing", "[SEP]", "game", "[SEP]"],
  "alignment": [[0], [1, 2], [3], [4], [5]],
  "attentions": {"shape": [1, 1, 6, 6], "data": [` + strings.TrimSuffix(strings.Repeat("1,", 36), ",") + `]},
  "attention_grads": {"shape": [1, 1, 6, 6], "data": [` + strings.TrimSuffix(strings.Repeat("1,", 36), ",") + `]}
}`
	dumps, err := ReadExampleDumps(strings.NewReader(in))
	require.NoError(t, err)

	example := dumps[0].Example()
	assert.Equal(t, []string{"game"}, example.AspectTokens())
	assert.Equal(t, []string{"[CLS]", "play", "##ing", "[SEP]", "game", "[SEP]"}, example.SubTokens())
	assert.Equal(t, Alignment{{0}, {1, 2}, {3}, {4}, {5}}, example.Alignment())

	item, err := dumps[0].BatchItem()
	require.NoError(t, err)
	assert.Nil(t, item.Alignment)

	patterns, err := newRecognizer(t, DefaultRecognizerConfig()).Recognize(item.Example, item.Output, item.Alignment)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, []string{"playing"}, patterns[0].Tokens)
}

func TestExampleDump_SubTokensMustMatchSequence(t *testing.T) {
	in := `{
  "text_tokens": ["playing"],
  "tokens": ["[CLS]", "playing", "[SEP]"],
  "sub_tokens": ["[CLS]", "play", "##ing"],
  "alignment": [[0], [1, 2]],
  "attentions": {"shape": [1, 1, 2, 2], "data": [1, 1, 1, 1]},
  "attention_grads": {"shape": [1, 1, 2, 2], "data": [1, 1, 1, 1]}
}`
	dumps, err := ReadExampleDumps(strings.NewReader(in))
	require.NoError(t, err)

	_, err = dumps[0].BatchItem()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestExampleDump_BadTensor(t *testing.T) {
	in := `{"text_tokens": [], "tokens": [], "attentions": {"shape": [2, 2], "data": [1, 2, 3]}}`
	dumps, err := ReadExampleDumps(strings.NewReader(in))
	require.NoError(t, err)

	_, err = dumps[0].BatchItem()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestReadExampleDumps_Malformed(t *testing.T) {
	_, err := ReadExampleDumps(strings.NewReader(`{"tokens": [`))
	assert.Error(t, err)
}
