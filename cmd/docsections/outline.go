package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsections/internal/outline"
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Write a heading outline JSON for every PDF in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := outline.NewRunner(newDecoder(cfg), log, cfg.WorkerCount)
		summary, err := r.Run(ctx, cfg.OutlineInputDir, cfg.OutlineOutputDir)
		if err != nil {
			return err
		}
		log.Info("done", "written", len(summary.Written), "failed", len(summary.Failed))
		return nil
	},
}

func init() {
	outlineCmd.Flags().String("input", "", "directory of PDFs (default /app/input)")
	outlineCmd.Flags().String("output", "", "directory for outline JSON (default /app/output)")
	v.BindPFlag("outline_input_dir", outlineCmd.Flags().Lookup("input"))
	v.BindPFlag("outline_output_dir", outlineCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(outlineCmd)
}
