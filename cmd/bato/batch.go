package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/PratikshaDPai/bato-downloader/pkg/config"
	"github.com/PratikshaDPai/bato-downloader/pkg/data"
	"github.com/PratikshaDPai/bato-downloader/pkg/services"
	"github.com/PratikshaDPai/bato-downloader/pkg/sources"
)

var batchCmd = &cobra.Command{
	Use:   "batch [series-url...]",
	Short: "Download a batch of series",
	Long:  "Download every chapter of each series, package them in the background, and retry failures once at the end",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			cobra.CheckErr(err)
		}

		seriesURLs := args
		if listFile, _ := cmd.Flags().GetString("file"); listFile != "" {
			fromFile, err := readSeriesList(listFile)
			if err != nil {
				cobra.CheckErr(err)
			}
			seriesURLs = append(seriesURLs, fromFile...)
		}
		if len(seriesURLs) == 0 {
			cobra.CheckErr(fmt.Errorf("no series given: pass URLs as arguments or --file"))
		}

		report, err := runBatch(cmd, settings, seriesURLs)
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
	batchCmd.Flags().StringP("file", "f", "", "File with one series URL per line")
	batchCmd.Flags().StringP("output", "o", "", "Output directory")
	batchCmd.Flags().String("format", "", "Packaging format (cbz, epub)")
	batchCmd.Flags().IntP("series-workers", "s", 0, "Concurrent series downloads")
	batchCmd.Flags().IntP("image-workers", "i", 0, "Concurrent image downloads per chapter")
	batchCmd.Flags().Bool("no-db", false, "Skip library bookkeeping in DuckDB")
	batchCmd.Flags().BoolP("verbose", "v", false, "Debug logging")
}

// runBatch wires the pipeline from settings and executes it. Shared by the
// batch and retry commands.
func runBatch(cmd *cobra.Command, settings *config.Settings, seriesURLs []string) (*services.RunReport, error) {
	packager, err := settings.Packager()
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	controller := services.NewBatchController(sources.NewBato(), packager, settings.ToControllerConfig(), logger)

	if noDB, _ := cmd.Flags().GetBool("no-db"); !noDB {
		repo, err := data.NewRepository(settings.DatabasePath)
		if err != nil {
			logger.Warn("library database unavailable, continuing without it", "error", err)
		} else {
			defer repo.Close()
			controller.WithRepository(repo)
		}
	}

	return controller.Run(cmd.Context(), seriesURLs)
}

// readSeriesList reads one series URL per line, skipping blanks and
// # comments.
func readSeriesList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func printReport(report *services.RunReport) {
	if report == nil {
		return
	}

	var (
		titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
		okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	)

	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("📦 Run %s", report.RunID)))
	fmt.Printf("   Series:     %d\n", report.Series)
	fmt.Printf("   Downloaded: %s\n", okStyle.Render(fmt.Sprintf("%d chapters", report.Downloaded)))
	fmt.Printf("   Packaged:   %s\n", okStyle.Render(fmt.Sprintf("%d archives", report.Packaged)))
	if report.StillFailed > 0 {
		fmt.Printf("   Failed:     %s\n", badStyle.Render(fmt.Sprintf("%d chapters", report.StillFailed)))
	}
}
