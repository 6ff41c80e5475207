package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/PratikshaDPai/bato-downloader/pkg/ledger"
	"github.com/PratikshaDPai/bato-downloader/pkg/services"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry chapters recorded in the failure ledger",
	Long:  "Re-download every chapter left in failed_chapters.json from a previous run, without re-fetching series metadata",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			cobra.CheckErr(err)
		}

		ledgerPath := filepath.Join(settings.OutputDir, ledger.DefaultFileName)
		records := ledger.Load(ledgerPath)
		if len(records) == 0 {
			fmt.Println("✅ Failure ledger is empty, nothing to retry")
			return
		}
		fmt.Printf("🔁 Retrying %d failed chapters\n", len(records))

		// A run with no series is exactly the retry pass over the ledger.
		report, err := runBatch(cmd, settings, nil)
		printReport(report)

		if errors.Is(err, services.ErrChaptersRemaining) {
			fmt.Fprintf(os.Stderr, "some chapters are still failed, ledger kept at %s\n", report.LedgerPath)
			os.Exit(1)
		}
		if err != nil {
			cobra.CheckErr(err)
		}
	},
}

func init() {
	retryCmd.Flags().StringP("output", "o", "", "Output directory")
	retryCmd.Flags().String("format", "", "Packaging format (cbz, epub)")
	retryCmd.Flags().IntP("image-workers", "i", 0, "Concurrent image downloads per chapter")
	retryCmd.Flags().Bool("no-db", false, "Skip library bookkeeping in DuckDB")
	retryCmd.Flags().BoolP("verbose", "v", false, "Debug logging")
}
