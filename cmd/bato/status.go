package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
	"github.com/PratikshaDPai/bato-downloader/pkg/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the library and any pending failures",
	Long:  "Display every tracked series with its download and packaging progress, plus the failure ledger",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			cobra.CheckErr(err)
		}

		repo, err := data.NewRepository(settings.DatabasePath)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer repo.Close()

		series, err := repo.ListSeries()
		if err != nil {
			cobra.CheckErr(err)
		}

		if len(series) == 0 {
			fmt.Println("📚 Library is empty. Use 'bato batch' to download series.")
		} else {
			printLibrary(repo, series)
		}

		records := ledger.Load(filepath.Join(settings.OutputDir, ledger.DefaultFileName))
		if len(records) > 0 {
			printFailures(records)
		}
	},
}

func init() {
	statusCmd.Flags().StringP("output", "o", "", "Output directory")
}

func printLibrary(repo *data.Repository, series []*data.Series) {
	columns := []table.Column{
		{Title: "Title", Width: 40},
		{Title: "Status", Width: 12},
		{Title: "Chapters", Width: 10},
		{Title: "Downloaded", Width: 12},
		{Title: "Packaged", Width: 10},
	}

	rows := []table.Row{}
	for _, s := range series {
		chapters, err := repo.GetChapters(s.ID)
		if err != nil {
			continue
		}
		var downloaded, packaged int
		for _, ch := range chapters {
			if ch.Downloaded {
				downloaded++
			}
			if ch.Packaged {
				packaged++
			}
		}

		rows = append(rows, table.Row{
			truncateString(s.Title, 38),
			s.Status,
			fmt.Sprintf("%d", len(chapters)),
			fmt.Sprintf("%d", downloaded),
			fmt.Sprintf("%d", packaged),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	fmt.Printf("\n📚 Library (%d series)\n\n", len(series))
	fmt.Println(t.View())
}

func printFailures(records []data.FailureRecord) {
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)

	fmt.Println(badStyle.Render(fmt.Sprintf("\n⚠️  %d failed chapters awaiting retry", len(records))))
	for _, r := range records {
		fmt.Printf("   %s / %s\n", truncateString(r.SeriesTitle, 30), r.ChapterTitle)
	}
	fmt.Println("\nRun 'bato retry' to re-attempt them.")
}
