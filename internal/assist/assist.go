// Package assist asks a text-generation model for a performance order of a
// song list and for short per-song performance tips. Every failure degrades to
// a deterministic fallback; callers never see an error.
package assist

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/util"
)

// FallbackTip is returned when no tip could be generated
const FallbackTip = "Great pick for this room."

// Assistant wraps a Generator with the setlist prompts and fallbacks.
type Assistant struct {
	gen     Generator
	model   string
	timeout time.Duration
}

// New creates an assistant. An empty modelName selects DefaultModel;
// a zero timeout leaves the transport default in place.
func New(gen Generator, modelName string, timeout time.Duration) *Assistant {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Assistant{gen: gen, model: modelName, timeout: timeout}
}

// Model returns the model name requests are sent to
func (a *Assistant) Model() string {
	return a.model
}

// SuggestOrder returns the song titles in a suggested performance order.
// On any failure the input titles are returned in input order.
func (a *Assistant) SuggestOrder(ctx context.Context, songs []model.Song) []string {
	if len(songs) == 0 {
		return []string{}
	}

	titles, err := a.suggestOrder(ctx, songs)
	if err != nil {
		util.DebugLog("assist: order suggestion failed, keeping input order: %v", err)
		return inputTitles(songs)
	}
	return titles
}

// SuggestOrderErr is SuggestOrder that also reports why the fallback was used
func (a *Assistant) SuggestOrderErr(ctx context.Context, songs []model.Song) ([]string, error) {
	if len(songs) == 0 {
		return []string{}, nil
	}
	titles, err := a.suggestOrder(ctx, songs)
	if err != nil {
		return inputTitles(songs), err
	}
	return titles, nil
}

func (a *Assistant) suggestOrder(ctx context.Context, songs []model.Song) ([]string, error) {
	text, err := a.generate(ctx, OrderPrompt(songs))
	if err != nil {
		return nil, err
	}
	titles := ParseTitles(text)
	if len(titles) == 0 {
		return nil, fmt.Errorf("no titles in response")
	}
	return titles, nil
}

// SuggestTip returns a short performance note for a song, or FallbackTip
func (a *Assistant) SuggestTip(ctx context.Context, title, band string) string {
	tip, err := a.SuggestTipErr(ctx, title, band)
	if err != nil {
		util.DebugLog("assist: tip for %q failed: %v", title, err)
	}
	return tip
}

// SuggestTipErr is SuggestTip that also reports why the fallback was used
func (a *Assistant) SuggestTipErr(ctx context.Context, title, band string) (string, error) {
	text, err := a.generate(ctx, TipPrompt(title, band))
	if err != nil {
		return FallbackTip, err
	}
	tip := strings.TrimSpace(text)
	if tip == "" {
		return FallbackTip, fmt.Errorf("empty response")
	}
	return tip, nil
}

func (a *Assistant) generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.gen.Generate(ctx, a.model, prompt)
}

// OrderPrompt builds the ordering prompt for songs
func OrderPrompt(songs []model.Song) string {
	var b strings.Builder
	b.WriteString("Consider the following songs for a live performance in a restaurant:\n")
	for _, s := range songs {
		fmt.Fprintf(&b, "- %s (%s, Key: %s, Band: %s)\n", s.Title, s.Style, s.Key, s.Band)
	}
	b.WriteString("\nAs a music curator for dining venues, suggest a logical order to play these songs, " +
		"starting calm and raising the energy gradually. " +
		"Return only the song titles in order, one per line.")
	return b.String()
}

// TipPrompt builds the tip prompt for one song
func TipPrompt(title, band string) string {
	return fmt.Sprintf("Give a short performance tip or quick fact (at most 15 words) about the song %q by %q "+
		"that a restaurant musician could share with the audience or use to prepare.", title, band)
}

var listMarker = regexp.MustCompile(`^(?:\d+\s*[.)]|[-*•])\s*`)

// ParseTitles splits a model response into titles, one per non-empty line,
// with list markers and surrounding quotes removed.
func ParseTitles(text string) []string {
	var titles []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(line, "*_ \t\"'“”‘’`")
		if line != "" {
			titles = append(titles, line)
		}
	}
	return titles
}

func inputTitles(songs []model.Song) []string {
	titles := make([]string, len(songs))
	for i, s := range songs {
		titles[i] = s.Title
	}
	return titles
}
