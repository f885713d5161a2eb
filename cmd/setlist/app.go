package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/franz/setlist/internal/assist"
	"github.com/franz/setlist/internal/report"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/store"
	"github.com/franz/setlist/internal/util"
)

// app bundles what every command needs
type app struct {
	dbPath  string
	backend string
	kv      *store.KV
	events  *report.EventLogger
	ctrl    *setlist.Controller
}

// openApp opens the configured store, audit log and assistant
func openApp(ctx context.Context) (*app, error) {
	dbPath := GetConfigPath("db", "~/.setlist/setlist.db")
	backendKind := GetConfigString("store.backend", store.BackendSQLite)

	util.DebugLog("Database: %s (%s)", dbPath, backendKind)

	backend, err := store.OpenBackend(backendKind, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	events, err := report.NewEventLogger(GetConfigPath("audit.dir", ""), report.LevelInfo)
	if err != nil {
		util.WarnLog("Audit log disabled: %v", err)
		events = report.NullLogger()
	}

	assistant, err := newAssistant(ctx)
	if err != nil {
		util.WarnLog("AI suggestions disabled: %v", err)
		assistant = assist.Offline()
	}

	kv := store.NewKV(backend)
	return &app{
		dbPath:  dbPath,
		backend: backendKind,
		kv:      kv,
		events:  events,
		ctrl: setlist.New(kv, setlist.Options{
			Assistant: assistant,
			Events:    events,
		}),
	}, nil
}

func newAssistant(ctx context.Context) (*assist.Assistant, error) {
	key := apiKey()
	if key == "" {
		util.DebugLog("No Gemini API key; suggestions use fallbacks")
	}
	gen, err := assist.NewGeminiGenerator(ctx, key)
	if err != nil {
		return nil, err
	}
	return assist.New(gen,
		GetConfigString("ai.model", assist.DefaultModel),
		GetConfigDuration("ai.timeout", 0),
	), nil
}

// Close flushes the audit log and closes the store
func (a *app) Close() {
	if err := a.kv.LastError(); err != nil {
		util.WarnLog("Last write to the database failed: %v", err)
	}
	if err := a.events.Close(); err != nil {
		util.WarnLog("Failed to close audit log: %v", err)
	}
	if err := a.kv.Backend().Close(); err != nil {
		util.WarnLog("Failed to close database: %v", err)
	}
}

// promptConfirmer asks on the terminal unless --yes was given
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
	yes bool
}

func newConfirmer() *promptConfirmer {
	return &promptConfirmer{in: os.Stdin, out: os.Stderr, yes: viper.GetBool("yes")}
}

func (p *promptConfirmer) Confirm(message string) bool {
	if p.yes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N] ", message)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// requireActive returns the active location or a hint to select one
func requireActive(ctrl *setlist.Controller) (string, error) {
	loc, ok := ctrl.ActiveLocation()
	if !ok {
		return "", fmt.Errorf("%w: run 'setlist location select <id>' first", util.ErrNoLocation)
	}
	return loc.Name, nil
}
