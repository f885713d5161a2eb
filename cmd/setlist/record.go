package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/audio"
	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/util"
)

var recordCmd = &cobra.Command{
	Use:   "record <song-id>",
	Short: "Record a voice memo for a song",
	Long: `Record a voice memo and attach it to a song.

Capture runs the configured record.command (default: arecord writing WAV
to stdout). Press Enter to stop and save, Ctrl-C to abort without changes.
With --file an existing audio file is attached instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().String("file", "", "Attach this audio file instead of recording")
	recordCmd.Flags().String("command", "", "Capture command (default record.command)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	song, err := a.ctrl.Song(args[0])
	if err != nil {
		return err
	}

	var dev audio.Device
	path, _ := cmd.Flags().GetString("file")
	if path != "" {
		dev = &audio.FileDevice{Path: path}
	} else {
		command, _ := cmd.Flags().GetString("command")
		if command == "" {
			command = GetConfigString("record.command", audio.DefaultCaptureCommand)
		}
		dev = audio.NewCommandDevice(command)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rec := audio.NewRecorder(dev)
	note, err := capture(ctx, rec, path == "")
	if err != nil {
		return err
	}

	in := model.InputOf(song)
	in.AudioNote = note.URL()
	if _, err := a.ctrl.EditSong(song.ID, in); err != nil {
		return err
	}

	d, ok := audio.Duration(note)
	if !ok {
		d = rec.Elapsed()
	}
	a.events.LogRecord(song.ID, note.MIME, note.Size(), d)

	util.SuccessLog("Saved %s memo (%s) for %q", note.MIME, humanize.Bytes(uint64(note.Size())), song.Title)
	return nil
}

// capture runs one start/stop cycle. Interactive captures stop on Enter and
// abort when ctx ends; the device is released on every path.
func capture(ctx context.Context, rec *audio.Recorder, interactive bool) (audio.Note, error) {
	if err := rec.Start(ctx); err != nil {
		return audio.Note{}, err
	}

	if interactive {
		fmt.Fprint(os.Stderr, "Recording... press Enter to stop, Ctrl-C to abort. ")

		enter := make(chan struct{})
		go func() {
			bufio.NewReader(os.Stdin).ReadString('\n')
			close(enter)
		}()

		select {
		case <-enter:
		case <-ctx.Done():
			rec.Abort()
			fmt.Fprintln(os.Stderr)
			return audio.Note{}, fmt.Errorf("recording aborted")
		}
	}

	note, err := rec.Stop()
	if err != nil {
		return audio.Note{}, err
	}
	return note, nil
}
