package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/franz/setlist/internal/util"
)

var (
	// ErrAlreadyRecording is returned by Start while a capture is in progress
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording is returned by Stop without a preceding Start
	ErrNotRecording = errors.New("not recording")

	// ErrEmptyRecording is returned when the capture produced no audio
	ErrEmptyRecording = errors.New("recording is empty")
)

// drainTimeout bounds how long Stop waits for an interrupted capture to flush
const drainTimeout = 2 * time.Second

// Recorder holds a capture device for the window between Start and Stop.
type Recorder struct {
	dev Device

	mu      sync.Mutex
	stream  io.ReadCloser
	buf     *bytes.Buffer
	done    chan error
	started time.Time
	elapsed time.Duration
}

// NewRecorder creates a recorder for dev
func NewRecorder(dev Device) *Recorder {
	return &Recorder{dev: dev}
}

// Recording reports whether a capture is in progress
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}

// Start acquires the device and begins buffering audio.
// On error nothing is held.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return ErrAlreadyRecording
	}

	stream, err := r.dev.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}

	r.stream = stream
	r.buf = &bytes.Buffer{}
	r.done = make(chan error, 1)
	r.started = time.Now()

	go func(buf *bytes.Buffer, done chan<- error) {
		_, err := io.Copy(buf, stream)
		done <- err
	}(r.buf, r.done)

	return nil
}

// Stop releases the device and returns the captured memo
func (r *Recorder) Stop() (Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return Note{}, ErrNotRecording
	}

	r.elapsed = time.Since(r.started)
	data := r.release()
	if len(data) == 0 {
		return Note{}, ErrEmptyRecording
	}

	return Encode(data), nil
}

// Elapsed returns the wall-clock length of the last stopped capture
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Abort releases the device and discards the capture.
// It is a no-op when not recording.
func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return
	}
	r.release()
	util.DebugLog("audio: recording aborted")
}

// release closes the stream exactly once and resets the recorder.
// Callers hold r.mu.
func (r *Recorder) release() []byte {
	stream, done, buf := r.stream, r.done, r.buf
	r.stream, r.done, r.buf = nil, nil, nil

	finished := false
	if s, ok := stream.(interrupter); ok {
		if err := s.Interrupt(); err == nil {
			select {
			case err := <-done:
				finished = true
				logCopyErr(err)
			case <-time.After(drainTimeout):
			}
		}
	}

	if err := stream.Close(); err != nil {
		util.DebugLog("audio: release: %v", err)
	}
	if !finished {
		logCopyErr(<-done)
	}

	return buf.Bytes()
}

func logCopyErr(err error) {
	if err != nil {
		util.DebugLog("audio: capture ended: %v", err)
	}
}
