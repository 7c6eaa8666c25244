package absa

/*
WHAT'S GOING ON HERE?

Renders patterns for people. Two outputs:

- HTML: a self-contained page, one row per pattern, each token shaded by its
  weight. Opens in any browser, no server or external assets.
- Text: a terminal view with a shade bar under every token.

Weights are clamped to [0, 1] for shading only; the printed numbers are the
real values.
*/

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"
)

// ErrNoPatterns is returned when there is nothing to render.
var ErrNoPatterns = errors.New("absa: no patterns to render")

// SavePatternsHTML writes the patterns of one example as an HTML heatmap.
// No file is created when patterns is empty.
func SavePatternsHTML(filename, title string, patterns []Pattern) error {
	if len(patterns) == 0 {
		return ErrNoPatterns
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	if err := WritePatternsHTML(f, title, patterns); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}
	return f.Close()
}

// WritePatternsHTML writes the HTML heatmap to w.
func WritePatternsHTML(w io.Writer, title string, patterns []Pattern) error {
	if len(patterns) == 0 {
		return ErrNoPatterns
	}

	var rows strings.Builder
	for i, p := range patterns {
		rows.WriteString(`        <div class="pattern">` + "\n")
		rows.WriteString(fmt.Sprintf(`            <div class="importance">#%d &middot; importance %.2f</div>`+"\n", i+1, p.Importance))
		rows.WriteString(`            <div class="tokens">`)
		for j, tok := range p.Tokens {
			weight := 0.0
			if j < len(p.Weights) {
				weight = p.Weights[j]
			}
			rows.WriteString(fmt.Sprintf(`<span style="background: rgba(88, 166, 255, %.2f)" title="%.2f">%s</span>`,
				shade(weight), weight, html.EscapeString(tok)))
		}
		rows.WriteString("</div>\n        </div>\n")
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
            background: #0d1117;
            color: #c9d1d9;
            padding: 20px;
            line-height: 1.6;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
        }
        h1 {
            font-size: 28px;
            margin-bottom: 20px;
            color: #58a6ff;
        }
        .pattern {
            background: #161b22;
            border: 1px solid #30363d;
            border-radius: 6px;
            padding: 15px;
            margin-bottom: 15px;
        }
        .importance {
            font-size: 12px;
            color: #8b949e;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 8px;
        }
        .tokens span {
            display: inline-block;
            padding: 2px 4px;
            margin: 2px 1px;
            border-radius: 3px;
            font-family: monospace;
        }
        .footer {
            text-align: center;
            color: #8b949e;
            font-size: 12px;
            margin-top: 40px;
            padding-top: 20px;
            border-top: 1px solid #30363d;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
%s
        <div class="footer">Generated by absa-patterns</div>
    </div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(title), rows.String())

	_, err := io.WriteString(w, page)
	return err
}

var shadeBlocks = []rune{' ', '░', '▒', '▓', '█'}

// RenderPatternsText writes one aligned block per pattern: tokens, their
// weights, and a shade bar.
func RenderPatternsText(w io.Writer, patterns []Pattern) error {
	for i, p := range patterns {
		if _, err := fmt.Fprintf(w, "Pattern %d (importance %.2f)\n", i+1, p.Importance); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
		var toks, weights, bars strings.Builder
		for j, tok := range p.Tokens {
			weight := 0.0
			if j < len(p.Weights) {
				weight = p.Weights[j]
			}
			width := max(len(tok), 4)
			toks.WriteString(tok + "\t")
			weights.WriteString(fmt.Sprintf("%.2f\t", weight))
			bars.WriteString(strings.Repeat(string(shadeRune(weight)), width) + "\t")
		}
		fmt.Fprintln(tw, "  "+toks.String())
		fmt.Fprintln(tw, "  "+weights.String())
		fmt.Fprintln(tw, "  "+bars.String())
		if err := tw.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func shade(weight float64) float64 {
	if math.IsNaN(weight) {
		return 0
	}
	return math.Min(1, math.Max(0, weight))
}

func shadeRune(weight float64) rune {
	idx := int(math.Round(shade(weight) * float64(len(shadeBlocks)-1)))
	return shadeBlocks[idx]
}
