package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventLocation EventType = "location"
	EventSong     EventType = "song"
	EventStyle    EventType = "style"
	EventSuggest  EventType = "suggest"
	EventRecord   EventType = "record"
	EventImport   EventType = "import"
	EventExport   EventType = "export"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event is a single audit record
type Event struct {
	Timestamp  time.Time         `json:"ts"`
	Level      EventLevel        `json:"level"`
	Event      EventType         `json:"event"`
	Action     string            `json:"action,omitempty"`
	LocationID string            `json:"location_id,omitempty"`
	SongID     string            `json:"song_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Duration   int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error      string            `json:"error,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// An empty outputDir disables auditing and returns the null logger.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if outputDir == "" {
		return NullLogger(), nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	// One file per day; concurrent processes append
	filename := fmt.Sprintf("events-%s.jsonl", time.Now().Format("20060102"))
	path := filepath.Join(outputDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogLocation logs a location mutation (create, delete, select)
func (l *EventLogger) LogLocation(action, locationID, name string, songsRemoved int) error {
	e := &Event{
		Level:      LevelInfo,
		Event:      EventLocation,
		Action:     action,
		LocationID: locationID,
		Name:       name,
	}
	if songsRemoved > 0 {
		e.Level = LevelWarning
		e.Extra = map[string]string{"songs_removed": fmt.Sprintf("%d", songsRemoved)}
	}
	return l.Log(e)
}

// LogSong logs a song mutation (add, edit, remove)
func (l *EventLogger) LogSong(action, locationID, songID, title string) error {
	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      EventSong,
		Action:     action,
		LocationID: locationID,
		SongID:     songID,
		Name:       title,
	})
}

// LogStyle logs a style mutation; reassigned counts songs moved to the fallback style
func (l *EventLogger) LogStyle(action, style string, reassigned int) error {
	e := &Event{
		Level:  LevelInfo,
		Event:  EventStyle,
		Action: action,
		Name:   style,
	}
	if reassigned > 0 {
		e.Extra = map[string]string{"songs_reassigned": fmt.Sprintf("%d", reassigned)}
	}
	return l.Log(e)
}

// LogSuggest logs an AI call. A non-nil err means the fallback was used.
func (l *EventLogger) LogSuggest(kind, locationID string, songCount int, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	reason := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
		reason = "fallback"
	}

	return l.Log(&Event{
		Level:      level,
		Event:      EventSuggest,
		Action:     kind,
		LocationID: locationID,
		Reason:     reason,
		Duration:   duration.Milliseconds(),
		Error:      errMsg,
		Extra: map[string]string{
			"songs": fmt.Sprintf("%d", songCount),
		},
	})
}

// LogRecord logs a voice memo attached to a song
func (l *EventLogger) LogRecord(songID, mime string, sizeBytes int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventRecord,
		Action:   "attach",
		SongID:   songID,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"mime":       mime,
			"size_bytes": fmt.Sprintf("%d", sizeBytes),
		},
	})
}

// LogTransfer logs an import or export of the whole state
func (l *EventLogger) LogTransfer(event EventType, path string, locations, songs int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: event,
		Name:  path,
		Extra: map[string]string{
			"locations": fmt.Sprintf("%d", locations),
			"songs":     fmt.Sprintf("%d", songs),
		},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, action string, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  event,
		Action: action,
		Error:  err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
