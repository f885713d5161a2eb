package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/audio"
	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/util"
)

var songCmd = &cobra.Command{
	Use:   "song",
	Short: "Manage the songs of the selected venue",
}

var songListCmd = &cobra.Command{
	Use:   "list",
	Short: "List songs of the selected venue, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSongList,
}

var songShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show every field of a song",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongShow,
}

var songAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a song to the selected venue",
	Long: `Add a song to the selected venue.

Title, key, band and style are required. --new-style registers a style
that does not exist yet. --audio attaches an audio file as voice memo.
--tip asks the AI for a performance tip and stores it as observations.`,
	Args: cobra.NoArgs,
	RunE: runSongAdd,
}

var songEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a song; unset flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongEdit,
}

var songRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a song",
	Args:    cobra.ExactArgs(1),
	RunE:    runSongRemove,
}

func init() {
	rootCmd.AddCommand(songCmd)
	songCmd.AddCommand(songListCmd, songShowCmd, songAddCmd, songEditCmd, songRemoveCmd)

	songListCmd.Flags().String("style", "", "Only songs of this style")
	songListCmd.Flags().String("search", "", "Case-insensitive text matched against title and band")

	for _, c := range []*cobra.Command{songAddCmd, songEditCmd} {
		c.Flags().String("title", "", "Song title")
		c.Flags().String("key", "", "Musical key")
		c.Flags().String("band", "", "Band or original artist")
		c.Flags().String("style", "", "Existing style")
		c.Flags().String("new-style", "", "New style (takes precedence over --style)")
		c.Flags().String("obs", "", "Observations")
		c.Flags().String("audio", "", "Audio file to attach as voice memo")
		c.Flags().Bool("tip", false, "Fill observations with an AI performance tip")
	}
	songEditCmd.Flags().Bool("no-audio", false, "Remove the voice memo")
}

func runSongList(cmd *cobra.Command, args []string) error {
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
	a.ctrl.SetStyleFilter(style)
	a.ctrl.SetSearch(search)

	songs := a.ctrl.FilteredView()
	util.InfoLog("%s: %d songs", name, len(songs))
	printSongs(songs)
	return nil
}

func printSongs(songs []model.Song) {
	width := util.GetTerminalWidth()
	for _, s := range songs {
		memo := " "
		if s.HasAudio() {
			memo = "♪"
		}
		line := fmt.Sprintf("%s %s  %-5s %s - %s [%s]", memo, s.ID, s.Key, s.Title, s.Band, s.Style)
		if s.Observations != "" {
			line += "  " + strings.ReplaceAll(s.Observations, "\n", " ")
		}
		fmt.Println(util.Truncate(line, width))
	}
}

func runSongShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.ctrl.Song(args[0])
	if err != nil {
		return err
	}

	venue := s.LocationID
	if loc, err := a.ctrl.Location(s.LocationID); err == nil {
		venue = loc.Name
	}

	fmt.Printf("Title:        %s\n", s.Title)
	fmt.Printf("Band:         %s\n", s.Band)
	fmt.Printf("Key:          %s\n", s.Key)
	fmt.Printf("Style:        %s\n", s.Style)
	fmt.Printf("Venue:        %s\n", venue)
	fmt.Printf("Added:        %s\n", humanize.Time(s.Created()))
	if s.Observations != "" {
		fmt.Printf("Observations: %s\n", s.Observations)
	}
	if s.HasAudio() {
		fmt.Printf("Voice memo:   %s\n", describeNote(s.AudioNote))
	}
	return nil
}

func describeNote(dataURL string) string {
	note, err := audio.Decode(dataURL)
	if err != nil {
		return fmt.Sprintf("unreadable (%v)", err)
	}
	desc := fmt.Sprintf("%s, %s", note.MIME, humanize.Bytes(uint64(note.Size())))
	if d, ok := audio.Duration(note); ok {
		desc += fmt.Sprintf(", %s", d.Round(100*time.Millisecond))
	}
	return desc
}

// applySongFlags overrides in with every flag the user set
func applySongFlags(cmd *cobra.Command, in *model.SongInput) error {
	flags := cmd.Flags()
	set := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	set("title", &in.Title)
	set("key", &in.Key)
	set("band", &in.Band)
	set("style", &in.Style)
	set("new-style", &in.NewStyle)
	set("obs", &in.Observations)

	if noAudio, _ := flags.GetBool("no-audio"); noAudio {
		in.AudioNote = ""
	}
	if path, _ := flags.GetString("audio"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read audio file: %w", err)
		}
		if len(data) == 0 {
			return fmt.Errorf("%s: %w", path, audio.ErrEmptyRecording)
		}
		in.AudioNote = audio.Encode(data).URL()
	}
	return nil
}

// fillTip asks the assistant for observations when --tip is set
func fillTip(cmd *cobra.Command, ctrl *setlist.Controller, in *model.SongInput) {
	if tip, _ := cmd.Flags().GetBool("tip"); !tip {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		return
	}
	stop := startSpinner("Asking for a tip")
	in.Observations = ctrl.SuggestTip(cmd.Context(), in.Title, in.Band)
	stop()
}

func runSongAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var in model.SongInput
	if err := applySongFlags(cmd, &in); err != nil {
		return err
	}
	if _, err := in.Validate(); err != nil {
		return err
	}
	if _, err := requireActive(a.ctrl); err != nil {
		return err
	}
	fillTip(cmd, a.ctrl, &in)

	song, err := a.ctrl.AddSong(in)
	if err != nil {
		return err
	}
	util.SuccessLog("Added %q (%s)", song.Title, song.ID)
	return nil
}

func runSongEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.ctrl.Song(args[0])
	if err != nil {
		return err
	}

	in := model.InputOf(current)
	if err := applySongFlags(cmd, &in); err != nil {
		return err
	}
	fillTip(cmd, a.ctrl, &in)

	song, err := a.ctrl.EditSong(current.ID, in)
	if err != nil {
		return err
	}
	util.SuccessLog("Updated %q", song.Title)
	return nil
}

func runSongRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.ctrl.RemoveSong(args[0], newConfirmer())
	if err != nil {
		return err
	}
	if !ok {
		util.InfoLog("Cancelled")
		return nil
	}
	util.SuccessLog("Deleted song %s", args[0])
	return nil
}
