// Package audio captures short voice memos and stores them as data URLs
// ("data:<mime>;base64,<payload>") so they travel inside the song record.
package audio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"github.com/franz/setlist/internal/util"
)

// Note is a decoded voice memo
type Note struct {
	MIME string
	Data []byte
}

// Encode wraps raw audio bytes in a Note, identifying the format from content
func Encode(data []byte) Note {
	return Note{MIME: DetectMIME(data), Data: data}
}

// URL returns the note as a data URL
func (n Note) URL() string {
	return "data:" + n.MIME + ";base64," + base64.StdEncoding.EncodeToString(n.Data)
}

// Size returns the payload size in bytes
func (n Note) Size() int {
	return len(n.Data)
}

// Decode parses a data URL produced by URL
func Decode(dataURL string) (Note, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return Note{}, fmt.Errorf("%w: not a data URL", util.ErrUnsupported)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Note{}, fmt.Errorf("%w: data URL without payload", util.ErrUnsupported)
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return Note{}, fmt.Errorf("%w: data URL is not base64 encoded", util.ErrUnsupported)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Note{}, fmt.Errorf("failed to decode memo payload: %w", err)
	}
	return Note{MIME: mime, Data: data}, nil
}

// DetectMIME identifies tagged audio containers first and falls back to
// content sniffing for everything else (WAV, WebM, untagged files).
func DetectMIME(data []byte) string {
	_, fileType, err := tag.Identify(bytes.NewReader(data))
	if err == nil {
		switch fileType {
		case tag.MP3:
			return "audio/mpeg"
		case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
			return "audio/mp4"
		case tag.FLAC:
			return "audio/flac"
		case tag.OGG:
			return "audio/ogg"
		}
	}

	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	switch sniffed {
	case "audio/wave":
		return "audio/wav"
	case "video/webm":
		// capture tools emit audio-only WebM
		return "audio/webm"
	case "text/plain", "application/octet-stream":
		return "application/octet-stream"
	}
	return sniffed
}

// Extension returns a file extension for the note's MIME type
func (n Note) Extension() string {
	switch n.MIME {
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4":
		return ".m4a"
	case "audio/flac":
		return ".flac"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav":
		return ".wav"
	case "audio/webm":
		return ".webm"
	}
	return ".bin"
}

// Duration returns the playing time of an MP3 memo; ok is false for other
// formats or undecodable data.
func Duration(n Note) (time.Duration, bool) {
	if n.MIME != "audio/mpeg" {
		return 0, false
	}

	decoder := mp3.NewDecoder(bytes.NewReader(n.Data))
	var frame mp3.Frame
	var skipped int
	var total time.Duration

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if total > 0 {
				// trailing garbage after valid frames
				break
			}
			return 0, false
		}
		total += frame.Duration()
	}

	return total, total > 0
}
