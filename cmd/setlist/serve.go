package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/setlist/internal/server"
	"github.com/franz/setlist/internal/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API on the local network",
	Long: `Serve the setlist JSON API.

Endpoints:
  GET    /health
  GET    /state
  GET    /locations              POST /locations
  DELETE /locations/{id}?confirm=true
  POST   /locations/{id}/select
  GET    /songs?style=&q=        POST /songs
  GET    /songs/{id}             PUT  /songs/{id}
  DELETE /songs/{id}?confirm=true
  GET    /songs/{id}/audio
  GET    /styles
  DELETE /styles/{name}?confirm=true
  POST   /suggest/order          POST /suggest/tip

Destructive requests without confirm=true answer 409 with the question
that would have been asked. Changes made by other setlist processes to a
SQLite database are picked up automatically.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default serve.addr)")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stopWatch := watchStore(a)
	defer stopWatch()

	addr := GetConfigString("serve.addr", defaultServeAddr)
	util.InfoLog("Serving %s on http://%s", a.dbPath, addr)

	if err := server.New(a.ctrl).ListenAndServe(ctx, addr); err != nil {
		return err
	}
	util.InfoLog("Server stopped")
	return nil
}

// watchStore reloads the controller when the database changes on disk
func watchStore(a *app) func() {
	debounce := GetConfigDuration("serve.reload_debounce", defaultReloadDebounce)
	w, err := server.NewWatcher(a.dbPath, debounce, a.ctrl.Reload)
	if err != nil {
		util.WarnLog("Not watching the database for outside changes: %v", err)
		return func() {}
	}
	return func() {
		if err := w.Close(); err != nil {
			util.DebugLog("watcher close: %v", err)
		}
	}
}
