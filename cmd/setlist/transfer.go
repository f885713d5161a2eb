package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/report"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/util"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write every venue, song and style to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all data with an export or a browser localStorage dump",
	Long: `Replace every venue, song and style with the contents of a file.

Accepted shapes:
- a file written by 'setlist export'
- a JSON dump of the browser app's localStorage (xp_locations,
  xp_setlist_songs_v2, xp_custom_styles_v2, xp_last_location)`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	backup, err := a.ctrl.Export(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close export file: %w", cerr)
	}
	if err != nil {
		a.events.LogError(report.EventExport, args[0], err)
		return err
	}

	a.events.LogTransfer(report.EventExport, args[0], len(backup.Locations), len(backup.Songs))
	util.SuccessLog("Exported %d venues and %d songs to %s", len(backup.Locations), len(backup.Songs), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	backup, err := setlist.ParseBackup(f)
	f.Close()
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.ctrl.Import(backup, newConfirmer())
	if err != nil {
		a.events.LogError(report.EventImport, args[0], err)
		return err
	}
	if !ok {
		util.InfoLog("Cancelled")
		return nil
	}

	a.events.LogTransfer(report.EventImport, args[0], len(backup.Locations), len(backup.Songs))
	util.SuccessLog("Imported %d venues and %d songs", len(backup.Locations), len(backup.Songs))
	return nil
}
