// Package model holds the setlist value types and the pure operations on them:
// identifier generation, input validation, style-set semantics, the catalog
// filter and typed decoding of persisted collections.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/franz/setlist/internal/util"
)

// Location is a venue that scopes part of the song catalog.
type Location struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
}

// Song is one catalog entry. AudioNote, when set, is a data URL
// ("data:<mime>;base64,<payload>") holding a voice memo.
type Song struct {
	ID           string `json:"id"`
	LocationID   string `json:"locationId"`
	Title        string `json:"title"`
	Key          string `json:"key"`
	Band         string `json:"band"`
	Style        string `json:"style"`
	Observations string `json:"observations"`
	AudioNote    string `json:"audioNote,omitempty"`
	CreatedAt    int64  `json:"createdAt"` // unix milliseconds
}

// Created returns the creation time of the song.
func (s Song) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// HasAudio reports whether a voice memo is attached.
func (s Song) HasAudio() bool {
	return s.AudioNote != ""
}

// SongInput is the editable part of a Song as submitted by a form.
// NewStyle, when non-empty, takes precedence over Style ("type new" vs "pick existing").
type SongInput struct {
	Title        string `json:"title"`
	Key          string `json:"key"`
	Band         string `json:"band"`
	Style        string `json:"style"`
	NewStyle     string `json:"newStyle,omitempty"`
	Observations string `json:"observations"`
	AudioNote    string `json:"audioNote,omitempty"`
}

// ResolvedStyle returns the style the input will be saved with.
func (in SongInput) ResolvedStyle() string {
	if s := strings.TrimSpace(in.NewStyle); s != "" {
		return s
	}
	return strings.TrimSpace(in.Style)
}

// Validate checks the required fields and returns the resolved style.
// The returned error wraps util.ErrValidation and names every missing field.
func (in SongInput) Validate() (string, error) {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Key) == "" {
		missing = append(missing, "key")
	}
	if strings.TrimSpace(in.Band) == "" {
		missing = append(missing, "band")
	}
	style := in.ResolvedStyle()
	if style == "" {
		missing = append(missing, "style")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", util.ErrValidation, strings.Join(missing, ", "))
	}
	return style, nil
}

// Apply copies the editable fields of in onto s, using style as the resolved style.
func (in SongInput) Apply(s *Song, style string) {
	s.Title = strings.TrimSpace(in.Title)
	s.Key = strings.TrimSpace(in.Key)
	s.Band = strings.TrimSpace(in.Band)
	s.Style = style
	s.Observations = in.Observations
	s.AudioNote = in.AudioNote
}

// InputOf returns the editable fields of s, the starting point of an edit form.
func InputOf(s Song) SongInput {
	return SongInput{
		Title:        s.Title,
		Key:          s.Key,
		Band:         s.Band,
		Style:        s.Style,
		Observations: s.Observations,
		AudioNote:    s.AudioNote,
	}
}

// NewID returns a random (version 4) UUID drawn from crypto/rand.
// There is no weaker fallback: a failing random source is reported.
func NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate identifier: %w", err)
	}
	return id.String(), nil
}
