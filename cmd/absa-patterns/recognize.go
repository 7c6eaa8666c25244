package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	absa "github.com/scttfrdmn/absa-patterns"
)

var (
	rcMaxPatterns int
	rcScaled      bool
	rcRounded     bool
	rcWorkers     int
	rcOutputJSON  bool
	rcHTML        string
)

func init() {
	recognizeCmd.Flags().IntVar(&rcMaxPatterns, "max-patterns", absa.DefaultMaxPatterns, "Maximum number of patterns per example")
	recognizeCmd.Flags().BoolVar(&rcScaled, "scaled", true, "Scale pattern weights so the strongest token is 1")
	recognizeCmd.Flags().BoolVar(&rcRounded, "rounded", true, "Round weights to two decimals")
	recognizeCmd.Flags().IntVar(&rcWorkers, "workers", 0, "Concurrent examples (0 = number of CPUs)")
	recognizeCmd.Flags().BoolVar(&rcOutputJSON, "json", false, "Output results as JSON")
	recognizeCmd.Flags().StringVar(&rcHTML, "html", "", "Write an HTML heatmap per example to this path")
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <dump.json|->",
	Short: "Extract patterns from dumped attention outputs",
	Long: `Extract patterns from one example dump or an array of them.

Examples:
  # Print patterns as a table
  absa-patterns recognize review.json

  # Top 3 unscaled patterns as JSON
  absa-patterns recognize --max-patterns 3 --scaled=false --json review.json

  # Heatmap (review-0.html, review-1.html, ... for arrays)
  absa-patterns recognize --html review.html reviews.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

// exampleResult is the JSON output for one example.
type exampleResult struct {
	Text     string         `json:"text,omitempty"`
	Aspect   string         `json:"aspect,omitempty"`
	Patterns []absa.Pattern `json:"patterns"`
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	f, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	dumps, err := absa.ReadExampleDumps(f)
	if err != nil {
		return err
	}
	items := make([]absa.BatchItem, len(dumps))
	examples := make([]*absa.TokenizedExample, len(dumps))
	for i, d := range dumps {
		if items[i], err = d.BatchItem(); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		examples[i] = d.Example()
	}

	recognizer, err := absa.NewBasicPatternRecognizer(cfg.RecognizerConfig, absa.WithLogger(logger))
	if err != nil {
		return err
	}
	rc := recognizer.Config()
	logger.Info("recognizing patterns",
		zap.Int("examples", len(items)),
		zap.Int("max_patterns", rc.MaxPatterns),
		zap.Bool("scaled", rc.IsScaled),
		zap.Bool("rounded", rc.IsRounded),
		zap.Int("workers", cfg.NumWorkers()))

	results, err := absa.RecognizeBatch(cmd.Context(), recognizer, items, cfg.NumWorkers())
	if err != nil {
		return err
	}

	if rcHTML != "" {
		for i, patterns := range results {
			path := htmlPath(rcHTML, i, len(results))
			err := absa.SavePatternsHTML(path, title(examples[i]), patterns)
			if errors.Is(err, absa.ErrNoPatterns) {
				logger.Warn("skipping heatmap", zap.Int("example", i), zap.Error(err))
				continue
			}
			if err != nil {
				return fmt.Errorf("example %d: %w", i, err)
			}
			logger.Info("heatmap written", zap.String("path", path))
		}
	}

	out := cmd.OutOrStdout()
	if rcOutputJSON {
		return writeJSON(out, examples, results)
	}
	for i, patterns := range results {
		fmt.Fprintf(out, "== %s\n", title(examples[i]))
		if len(patterns) == 0 {
			fmt.Fprintln(out, "  (no patterns)")
			continue
		}
		if err := absa.RenderPatternsText(out, patterns); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, examples []*absa.TokenizedExample, results [][]absa.Pattern) error {
	payload := make([]exampleResult, len(results))
	for i, patterns := range results {
		if patterns == nil {
			patterns = []absa.Pattern{}
		}
		payload[i] = exampleResult{Text: examples[i].Text, Aspect: aspect(examples[i]), Patterns: patterns}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func title(e *absa.TokenizedExample) string {
	text := e.Text
	if text == "" {
		text = strings.Join(e.TextTokens(), " ")
	}
	a := aspect(e)
	if a == "" {
		return text
	}
	return fmt.Sprintf("%s [aspect: %s]", text, a)
}

func aspect(e *absa.TokenizedExample) string {
	if e.Aspect != "" {
		return e.Aspect
	}
	return strings.Join(e.AspectTokens(), " ")
}

// htmlPath numbers output files when a dump holds more than one example.
func htmlPath(base string, i, n int) string {
	if n == 1 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), i, ext)
}
