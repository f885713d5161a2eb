package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/util"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Ask the AI for a running order or performance tips",
	Long: `Ask the AI collaborator for help.

Without an API key (ai.api_key, GEMINI_API_KEY or API_KEY) every request
falls back: the order stays as listed and tips are a generic line.`,
}

var suggestOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Suggest a performance order for the selected venue",
	Args:  cobra.NoArgs,
	RunE:  runSuggestOrder,
}

var suggestTipCmd = &cobra.Command{
	Use:   "tip <title> [band]",
	Short: "Suggest a short performance tip for a song",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSuggestTip,
}

var suggestTipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Fill empty observations of the listed songs with AI tips",
	Args:  cobra.NoArgs,
	RunE:  runSuggestTips,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.AddCommand(suggestOrderCmd, suggestTipCmd, suggestTipsCmd)

	for _, c := range []*cobra.Command{suggestOrderCmd, suggestTipsCmd} {
		c.Flags().String("style", "", "Only songs of this style")
		c.Flags().String("search", "", "Only songs matching this text")
	}
	suggestTipsCmd.Flags().Int("concurrency", 0, "Parallel AI requests (default ai.concurrency)")
}

// startSpinner shows an indeterminate spinner on stderr until the returned func is called
func startSpinner(description string) func() {
	if !util.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
		bar.Finish()
	}
}

func applyViewFlags(cmd *cobra.Command, ctrl *setlist.Controller) {
	style, _ := cmd.Flags().GetString("style")
	search, _ := cmd.Flags().GetString("search")
	ctrl.SetStyleFilter(style)
	ctrl.SetSearch(search)
}

func runSuggestOrder(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	name, err := requireActive(a.ctrl)
	if err != nil {
		return err
	}
	style, _ := cmd.Flags().GetString("style")
	search, _ := cmd.Flags().GetString("search")

	stop := startSpinner("Ordering " + name)
	_, err = a.ctrl.SuggestOrderFor(cmd.Context(), style, search)
	stop()
	if err != nil {
		return err
	}

	util.InfoLog("Suggested order for %s:", name)
	for i, s := range a.ctrl.OrderedSongs() {
		fmt.Printf("%2d. %s - %s [%s, %s]\n", i+1, s.Title, s.Band, s.Key, s.Style)
	}
	return nil
}

func runSuggestTip(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	band := ""
	if len(args) > 1 {
		band = args[1]
	}

	stop := startSpinner("Asking for a tip")
	tip := a.ctrl.SuggestTip(cmd.Context(), args[0], band)
	stop()

	fmt.Println(tip)
	return nil
}

type tipResult struct {
	song model.Song
	tip  string
	err  error
}

func runSuggestTips(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := requireActive(a.ctrl); err != nil {
		return err
	}
	applyViewFlags(cmd, a.ctrl)

	var pending []model.Song
	for _, s := range a.ctrl.FilteredView() {
		if strings.TrimSpace(s.Observations) == "" {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		util.InfoLog("Every listed song already has observations")
		return nil
	}

	workers, _ := cmd.Flags().GetInt("concurrency")
	if workers <= 0 {
		workers = GetConfigInt("ai.concurrency", defaultConcurrency)
	}

	results := collectTips(cmd.Context(), a.ctrl, pending, workers)

	filled := 0
	for _, r := range results {
		if r.err != nil {
			util.WarnLog("No tip for %q: %v", r.song.Title, r.err)
			continue
		}
		in := model.InputOf(r.song)
		in.Observations = r.tip
		if _, err := a.ctrl.EditSong(r.song.ID, in); err != nil {
			util.WarnLog("Failed to save tip for %q: %v", r.song.Title, err)
			continue
		}
		filled++
	}

	util.SuccessLog("Filled %d of %d songs", filled, len(pending))
	return nil
}

// collectTips requests tips for songs with at most workers requests in flight
func collectTips(ctx context.Context, ctrl *setlist.Controller, songs []model.Song, workers int) []tipResult {
	stop := startSpinner(fmt.Sprintf("Asking for %d tips", len(songs)))
	defer stop()

	assistant := ctrl.Assistant()
	p := pool.NewWithResults[tipResult]().WithMaxGoroutines(workers)
	for _, s := range songs {
		p.Go(func() tipResult {
			tip, err := assistant.SuggestTipErr(ctx, s.Title, s.Band)
			return tipResult{song: s, tip: tip, err: err}
		})
	}
	return p.Wait()
}
