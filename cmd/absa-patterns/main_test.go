package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dump = `{
  "text": "great fans",
  "aspect": "slack",
  "text_tokens": ["great", "fans"],
  "tokens": ["[CLS]", "great", "fans", "[SEP]"],
  "attentions": {"shape": [1, 1, 4, 4], "data": [0,1,2,0, 0,1,3,0, 0,2,4,0, 0,0,0,0]},
  "attention_grads": {"shape": [1, 1, 4, 4], "data": [1,1,1,1, 1,1,1,1, 1,1,1,1, 1,1,1,1]}
}`

const zeroDump = `{
  "text_tokens": ["meh"],
  "tokens": ["[CLS]", "meh", "[SEP]"],
  "attentions": {"shape": [1, 1, 3, 3], "data": [0,0,0, 0,0,0, 0,0,0]},
  "attention_grads": {"shape": [1, 1, 3, 3], "data": [1,1,1, 1,1,1, 1,1,1]}
}`

func writeDump(t *testing.T) string {
	t.Helper()
	return writeFile(t, dump)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := executeErr(t, args...)
	require.NoError(t, err)
	return out
}

func executeErr(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rcOutputJSON = false
		rcHTML = ""
		for _, name := range []string{"json", "html", "max-patterns", "scaled", "rounded", "workers"} {
			if f := recognizeCmd.Flags().Lookup(name); f != nil {
				f.Changed = false
			}
		}
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRecognizeJSON(t *testing.T) {
	out := execute(t, "recognize", "--json", "--scaled=false", "--rounded=false", "--log-level", "error", writeDump(t))

	var results []exampleResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "slack", results[0].Aspect)
	require.Len(t, results[0].Patterns, 2)
	assert.Equal(t, 1.0, results[0].Patterns[0].Importance)
	assert.Equal(t, []float64{0.5, 1}, results[0].Patterns[0].Weights)
}

func TestRecognizeText(t *testing.T) {
	out := execute(t, "recognize", "--log-level", "error", writeDump(t))
	assert.Contains(t, out, "== great fans [aspect: slack]")
	assert.Contains(t, out, "Pattern 1 (importance 1.00)")
}

func TestRecognizeHTML(t *testing.T) {
	html := filepath.Join(t.TempDir(), "out.html")
	execute(t, "recognize", "--log-level", "error", "--html", html, writeDump(t))
	assert.FileExists(t, html)
}

func TestRecognizeHTML_NoPatternsWritesNoFile(t *testing.T) {
	html := filepath.Join(t.TempDir(), "out.html")
	out := execute(t, "recognize", "--log-level", "error", "--html", html, writeFile(t, zeroDump))
	assert.Contains(t, out, "(no patterns)")
	assert.NoFileExists(t, html)
}

func TestRecognizeHTML_WriteErrorFails(t *testing.T) {
	html := filepath.Join(t.TempDir(), "missing", "out.html")
	_, err := executeErr(t, "recognize", "--log-level", "error", "--html", html, writeDump(t))
	assert.Error(t, err)
	assert.NoFileExists(t, html)
}

func TestMask(t *testing.T) {
	out := execute(t, "mask", writeDump(t))
	assert.Contains(t, out, "great")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "false")
}

func TestHTMLPath(t *testing.T) {
	assert.Equal(t, "a.html", htmlPath("a.html", 0, 1))
	assert.Equal(t, "a-2.html", htmlPath("a.html", 2, 3))
}
