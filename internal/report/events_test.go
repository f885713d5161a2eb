package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", len(events)+1, err)
		}
		events = append(events, decoded)
	}
	return events
}

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logger.Path()); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.Path())
	}

	filename := filepath.Base(logger.Path())
	if !strings.HasPrefix(filename, "events-") || !strings.HasSuffix(filename, ".jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
}

func TestNewEventLogger_EmptyDirDisables(t *testing.T) {
	logger, err := NewEventLogger("", LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	if logger != nil {
		t.Error("Expected null logger for empty audit dir")
	}
	if err := logger.LogSong("add", "loc", "song", "Wonderwall"); err != nil {
		t.Errorf("Null logger should not fail: %v", err)
	}
}

func TestEventLogger_AppendsAcrossOpens(t *testing.T) {
	tmpDir := t.TempDir()

	for i := 0; i < 2; i++ {
		logger, err := NewEventLogger(tmpDir, LevelDebug)
		if err != nil {
			t.Fatalf("NewEventLogger failed: %v", err)
		}
		logger.LogSong("add", "loc-1", "song-1", "Wonderwall")
		logger.Close()
	}

	matches, _ := filepath.Glob(filepath.Join(tmpDir, "events-*.jsonl"))
	if len(matches) != 1 {
		t.Fatalf("Expected one daily log file, got %d", len(matches))
	}
	if got := len(readEvents(t, matches[0])); got != 2 {
		t.Errorf("Expected 2 events, got %d", got)
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				if err := logger.LogSong("edit", "loc", "song", "title"); err != nil {
					t.Errorf("Concurrent log failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	logger.Close()

	if got := len(readEvents(t, logger.Path())); got != numGoroutines*eventsPerGoroutine {
		t.Errorf("Expected %d events, got %d", numGoroutines*eventsPerGoroutine, got)
	}
}

func TestEventLogger_LogLocation(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogLocation("create", "loc-1", "Pub Central", 0)
	logger.LogLocation("delete", "loc-1", "Pub Central", 3)
	logger.Close()

	events := readEvents(t, logger.Path())
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Level != LevelInfo || events[0].Extra != nil {
		t.Errorf("Create should be info without extras, got %+v", events[0])
	}
	if events[1].Level != LevelWarning {
		t.Errorf("Cascade delete should be a warning, got %s", events[1].Level)
	}
	if events[1].Extra["songs_removed"] != "3" {
		t.Errorf("Expected songs_removed 3, got %q", events[1].Extra["songs_removed"])
	}
}

func TestEventLogger_LogStyle(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogStyle("delete", "Pop", 2)
	logger.Close()

	events := readEvents(t, logger.Path())
	if events[0].Event != EventStyle || events[0].Name != "Pop" {
		t.Errorf("Unexpected event %+v", events[0])
	}
	if events[0].Extra["songs_reassigned"] != "2" {
		t.Errorf("Expected songs_reassigned 2, got %q", events[0].Extra["songs_reassigned"])
	}
}

func TestEventLogger_LogSuggest(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	duration := 250 * time.Millisecond
	logger.LogSuggest("order", "loc-1", 4, duration, nil)
	logger.LogSuggest("tip", "loc-1", 1, duration, errors.New("quota exceeded"))
	logger.Close()

	events := readEvents(t, logger.Path())
	if events[0].Level != LevelInfo || events[0].Reason != "" {
		t.Errorf("Successful call should be info, got %+v", events[0])
	}
	if events[0].Duration != duration.Milliseconds() {
		t.Errorf("Expected duration %d ms, got %d ms", duration.Milliseconds(), events[0].Duration)
	}
	if events[0].Extra["songs"] != "4" {
		t.Errorf("Expected songs 4, got %q", events[0].Extra["songs"])
	}
	if events[1].Level != LevelWarning || events[1].Reason != "fallback" || events[1].Error != "quota exceeded" {
		t.Errorf("Failed call should record the fallback, got %+v", events[1])
	}
}

func TestEventLogger_LogRecordAndTransfer(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogRecord("song-1", "audio/webm", 2048, 3*time.Second)
	logger.LogTransfer(EventExport, "/tmp/backup.json", 2, 5)
	logger.Close()

	events := readEvents(t, logger.Path())
	if events[0].Extra["mime"] != "audio/webm" || events[0].Extra["size_bytes"] != "2048" {
		t.Errorf("Unexpected record extras %v", events[0].Extra)
	}
	if events[1].Event != EventExport || events[1].Extra["songs"] != "5" {
		t.Errorf("Unexpected transfer event %+v", events[1])
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventSong}); err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}
	if err := logger.LogError(EventSong, "add", errors.New("boom")); err != nil {
		t.Errorf("NullLogger.LogError should not return error, got: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}
	if path := logger.Path(); path != "" {
		t.Errorf("NullLogger.Path should return empty string, got: %s", path)
	}
}

func TestEventLogger_AutoTimestamp(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventSong}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	logger.Close()

	decoded := readEvents(t, logger.Path())[0]
	if decoded.Timestamp.IsZero() {
		t.Error("Expected timestamp to be auto-set, but it's zero")
	}
	if time.Since(decoded.Timestamp) > 5*time.Second {
		t.Errorf("Timestamp is too old: %v", decoded.Timestamp)
	}
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	events := []Event{
		{Level: LevelDebug, Event: EventSong},
		{Level: LevelInfo, Event: EventLocation},
		{Level: LevelWarning, Event: EventSuggest},
		{Level: LevelError, Event: EventError},
	}

	testCases := []struct {
		name          string
		minLevel      EventLevel
		expectedCount int
	}{
		{"LevelDebug logs all", LevelDebug, 4},
		{"LevelInfo skips debug", LevelInfo, 3},
		{"LevelWarning skips debug and info", LevelWarning, 2},
		{"LevelError only logs errors", LevelError, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewEventLogger(t.TempDir(), tc.minLevel)
			if err != nil {
				t.Fatalf("NewEventLogger failed: %v", err)
			}

			for _, e := range events {
				if err := logger.Log(&e); err != nil {
					t.Fatalf("Log failed: %v", err)
				}
			}
			logger.Close()

			if got := len(readEvents(t, logger.Path())); got != tc.expectedCount {
				t.Errorf("Expected %d events logged, got %d", tc.expectedCount, got)
			}
		})
	}
}
