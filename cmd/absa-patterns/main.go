// Package main implements absa-patterns, a CLI that turns dumped attention
// outputs into ranked, human-readable patterns.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	absa "github.com/scttfrdmn/absa-patterns"
)

var (
	version = "dev"

	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "absa-patterns",
	Short: "Explain aspect sentiment predictions with attention patterns",
	Long: `absa-patterns reads the attention output of an aspect-based sentiment
classifier (attentions and their gradients, dumped as JSON) and prints the
patterns: the words the model relied on, ranked by importance.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (env ABSA_* overrides it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(maskCmd)
}

// loadConfig merges file, environment and command-line flags.
func loadConfig(cmd *cobra.Command) (absa.Config, error) {
	cfg, err := absa.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("max-patterns") {
		cfg.MaxPatterns = rcMaxPatterns
	}
	if cmd.Flags().Changed("scaled") {
		cfg.IsScaled = rcScaled
	}
	if cmd.Flags().Changed("rounded") {
		cfg.IsRounded = rcRounded
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = rcWorkers
	}
	return cfg, cfg.Validate()
}

// newLogger builds a console logger on stderr at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	return zc.Build()
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}
	return f, nil
}
