package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/franz/setlist/internal/util"
)

// DefaultCaptureCommand records WAV from the default ALSA device to stdout
const DefaultCaptureCommand = "arecord -q -f cd -t wav -"

// Device acquires an audio capture resource. Closing the returned stream
// releases it.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// interrupter is implemented by streams that can be asked to finish
// gracefully before they are closed.
type interrupter interface {
	Interrupt() error
}

// CommandDevice captures from an external command's stdout
type CommandDevice struct {
	Command string
}

// NewCommandDevice creates a device for a whitespace-separated command line
func NewCommandDevice(command string) *CommandDevice {
	if strings.TrimSpace(command) == "" {
		command = DefaultCaptureCommand
	}
	return &CommandDevice{Command: command}
}

// Available reports whether the capture program is on PATH
func (d *CommandDevice) Available() bool {
	fields := strings.Fields(d.Command)
	if len(fields) == 0 {
		return false
	}
	_, err := exec.LookPath(fields[0])
	return err == nil
}

// Open starts the capture command
func (d *CommandDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	fields := strings.Fields(d.Command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty capture command", util.ErrInvalidConfig)
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("capture program %s: %w", fields[0], util.ErrNotFound)
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach to capture command: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture command: %w", err)
	}

	util.DebugLog("audio: capturing with %s (pid %d)", d.Command, cmd.Process.Pid)
	return &commandStream{cmd: cmd, stdout: stdout}, nil
}

type commandStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	once   sync.Once
}

func (s *commandStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Interrupt asks the capture program to finish writing and exit
func (s *commandStream) Interrupt() error {
	return s.cmd.Process.Signal(os.Interrupt)
}

// Close kills the capture program if it is still running and reaps it
func (s *commandStream) Close() error {
	s.once.Do(func() {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			util.DebugLog("audio: kill capture: %v", err)
		}
		// exit status after a kill or interrupt is expected
		_ = s.cmd.Wait()
	})
	return nil
}

// FileDevice reads an existing recording
type FileDevice struct {
	Path string
}

// Open opens the file
func (d *FileDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	return fileStream{f}, nil
}

// fileStream is read to EOF before it is closed
type fileStream struct {
	*os.File
}

func (fileStream) Interrupt() error { return nil }
