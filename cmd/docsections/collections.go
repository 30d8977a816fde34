package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsections/internal/pipeline"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections [root]",
	Short: "Process every collection directory under root",
	Long: `Collections walks the subdirectories of root whose names start with
"collection", reads challenge1b_input.json and the PDFs/ folder of each, and
writes challenge1b_output.json beside them. A failing document or collection
is logged and skipped; only a missing root is fatal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			v.Set("collections_root", args[0])
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		orch := pipeline.NewOrchestrator(cfg, newDecoder(cfg), log)
		summary, err := orch.ProcessRoot(ctx, cfg.CollectionsRoot)
		if err != nil {
			return fmt.Errorf("process %s: %w", cfg.CollectionsRoot, err)
		}
		log.Info("done", "processed", len(summary.Processed), "failed", len(summary.Failed))
		return nil
	},
}

func init() {
	collectionsCmd.Flags().Int("page-scan-limit", 0, "pages read per document (default 5)")
	collectionsCmd.Flags().Int("max-sections", 0, "sections kept per document (default 5)")
	collectionsCmd.Flags().Bool("report", false, "also write challenge1b_report.html")
	v.BindPFlag("page_scan_limit", collectionsCmd.Flags().Lookup("page-scan-limit"))
	v.BindPFlag("max_sections", collectionsCmd.Flags().Lookup("max-sections"))
	v.BindPFlag("write_report", collectionsCmd.Flags().Lookup("report"))

	rootCmd.AddCommand(collectionsCmd)
}
