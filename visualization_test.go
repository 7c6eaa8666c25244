package absa

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePatterns() []Pattern {
	tokens := []string{"we", "wish", "<cheaper>"}
	return []Pattern{
		{Importance: 1, Tokens: tokens, Weights: []float64{0.06, 1, 0.5}},
		{Importance: 0.42, Tokens: tokens, Weights: []float64{0, 0.2, 1}},
	}
}

func TestSavePatternsHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.html")
	require.NoError(t, SavePatternsHTML(path, "price", samplePatterns()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(content)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>price</title>")
	assert.Contains(t, page, "&lt;cheaper&gt;", "tokens are escaped")
	assert.NotContains(t, page, "<cheaper>")
	assert.Equal(t, 2, strings.Count(page, `<div class="pattern">`))
	assert.Contains(t, page, "importance 0.42")
}

func TestWritePatternsHTML_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WritePatternsHTML(&buf, "empty", nil), ErrNoPatterns)
	assert.Zero(t, buf.Len())
}

func TestSavePatternsHTML_EmptyCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	assert.ErrorIs(t, SavePatternsHTML(path, "empty", nil), ErrNoPatterns)
	assert.NoFileExists(t, path)
}

func TestRenderPatternsText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPatternsText(&buf, samplePatterns()))

	out := buf.String()
	assert.Contains(t, out, "Pattern 1 (importance 1.00)")
	assert.Contains(t, out, "Pattern 2 (importance 0.42)")
	assert.Contains(t, out, "████")
	assert.Contains(t, out, "0.06")
}

func TestShadeClamps(t *testing.T) {
	assert.Equal(t, 0.0, shade(-2))
	assert.Equal(t, 1.0, shade(3))
	assert.Equal(t, ' ', shadeRune(0))
	assert.Equal(t, '█', shadeRune(1))
	assert.Equal(t, '▒', shadeRune(0.5))
}
