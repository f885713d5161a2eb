package setlist

import (
	"context"
	"strings"
	"time"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/util"
)

// SuggestOrder asks the assistant to order the songs of the current view.
// The controller lock is not held during the request; the result is applied
// to whatever state exists when it returns. Cancelling ctx does not abort the
// request, which ends on its own or on the assistant's timeout.
func (c *Controller) SuggestOrder(ctx context.Context) ([]string, error) {
	return c.suggestOrder(ctx, nil)
}

// SuggestOrderFor orders the active location's songs matching style and
// search. The session filter is set to them only once the request starts.
func (c *Controller) SuggestOrderFor(ctx context.Context, style, search string) ([]string, error) {
	return c.suggestOrder(ctx, &model.Query{Style: strings.TrimSpace(style), Search: search})
}

func (c *Controller) suggestOrder(ctx context.Context, filter *model.Query) ([]string, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, util.ErrBusy
	}
	if c.active == "" {
		c.mu.Unlock()
		return nil, util.ErrNoLocation
	}
	if c.view != ViewList && c.view != ViewAISetlist {
		err := transitionErr(c.view, "suggest an order")
		c.mu.Unlock()
		return nil, err
	}
	q := model.Query{LocationID: c.active, Style: c.styleFilter, Search: c.search}
	if filter != nil {
		q.Style, q.Search = filter.Style, filter.Search
	}
	songs := model.Filter(c.songs, q)
	if len(songs) < 2 {
		c.mu.Unlock()
		return nil, util.ErrTooFewSongs
	}
	c.styleFilter, c.search = q.Style, q.Search
	locationID := c.active
	c.busy = true
	c.mu.Unlock()

	var titles []string
	defer func() {
		c.mu.Lock()
		c.busy = false
		if titles != nil {
			c.ordering = titles
			c.view = ViewAISetlist
		}
		c.mu.Unlock()
	}()

	start := time.Now()
	titles, err := c.assist.SuggestOrderErr(context.WithoutCancel(ctx), songs)
	if err != nil {
		util.DebugLog("setlist: order suggestion fell back to list order: %v", err)
	}
	c.events.LogSuggest("order", locationID, len(songs), time.Since(start), err)

	return append([]string(nil), titles...), nil
}

// Ordering returns the titles of the most recent suggestion.
func (c *Controller) Ordering() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ordering...)
}

// OrderedSongs resolves the most recent suggestion to songs of the active
// location. Titles that match no song are skipped.
func (c *Controller) OrderedSongs() []model.Song {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Song, 0, len(c.ordering))
	used := make(map[string]bool, len(c.ordering))
	for _, title := range c.ordering {
		if song, ok := c.songByTitle(title, used); ok {
			used[song.ID] = true
			out = append(out, song)
		}
	}
	return out
}

// songByTitle finds the first song of the active location with title that is
// not in used, falling back to a case-insensitive match. Callers hold c.mu.
func (c *Controller) songByTitle(title string, used map[string]bool) (model.Song, bool) {
	for _, s := range c.songs {
		if s.LocationID == c.active && !used[s.ID] && s.Title == title {
			return s, true
		}
	}
	for _, s := range c.songs {
		if s.LocationID == c.active && !used[s.ID] &&
			strings.EqualFold(strings.TrimSpace(s.Title), strings.TrimSpace(title)) {
			return s, true
		}
	}
	return model.Song{}, false
}

// Back leaves the suggested order.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view != ViewAISetlist {
		return transitionErr(c.view, "go back")
	}
	c.view = ViewList
	return nil
}

// SuggestTip returns a short performance note for a song. Like SuggestOrder
// it runs to completion even when ctx is cancelled.
func (c *Controller) SuggestTip(ctx context.Context, title, band string) string {
	start := time.Now()
	tip, err := c.assist.SuggestTipErr(context.WithoutCancel(ctx), title, band)
	c.events.LogSuggest("tip", "", 1, time.Since(start), err)
	return tip
}
