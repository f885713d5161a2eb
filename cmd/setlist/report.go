package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/report"
	"github.com/franz/setlist/internal/util"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a catalog summary report",
	Long: `Generate a summary of the catalog in Markdown format.

The report includes:
- Venues with song and voice memo counts
- Style usage, including styles no song uses
- Songs whose venue no longer exists
- Voice memo storage

Without --out the report is printed to stdout.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "Write the report to this directory as summary-<timestamp>.md")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	summary := report.GenerateSummaryReport(a.ctrl.Catalog())
	summary.DatabasePath = a.dbPath
	summary.Backend = a.backend
	summary.EventLogPath = a.events.Path()

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		fmt.Print(report.RenderMarkdown(summary))
		return nil
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("summary-%s.md", time.Now().Format("20060102-150405")))
	util.InfoLog("Writing report to: %s", outputPath)
	if err := report.WriteMarkdownReport(summary, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report generated successfully!")
	util.InfoLog("  Venues: %d", summary.TotalLocations)
	util.InfoLog("  Songs: %d (%d with voice memos, %s)", summary.TotalSongs, summary.SongsWithAudio, humanize.Bytes(summary.AudioBytes))
	if summary.OrphanSongs > 0 {
		util.WarnLog("  Songs without a venue: %d", summary.OrphanSongs)
	}
	return nil
}
