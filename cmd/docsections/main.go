// Package main is the entry point for the docsections CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/docsections/internal/config"
	"github.com/dgallion1/docsections/internal/parser"
)

// version is set at build time via ldflags.
var version = "dev"

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "docsections",
	Short: "Extract ranked sections and heading outlines from PDF collections",
	Long: `docsections reads collections of PDFs and writes, for each collection, the
candidate section headings of every document with their page and a context
snippet. It also builds per-document heading outlines and can serve both
over an HTTP API.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docsections.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or text")
	rootCmd.PersistentFlags().Int("workers", 0, "worker pool size (default: number of CPUs)")

	config.SetDefaults(v)
	v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	v.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	v.BindPFlag("worker_count", rootCmd.PersistentFlags().Lookup("workers"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docsections")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the effective configuration and builds the
// logger it describes.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg := config.Load(v)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, newLogger(cfg, os.Stdout), nil
}

// newLogger writes every format to w.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	level.UnmarshalText([]byte(cfg.LogLevel))
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newDecoder(cfg config.Config) parser.Decoder {
	return parser.ByExtension{FallbackPdftotext: cfg.PDFFallbackPdftotext}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
