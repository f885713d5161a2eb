package setlist

import (
	"fmt"
	"strings"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/util"
)

// Songs returns every song of every location in insertion order.
func (c *Controller) Songs() []model.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Song{}, c.songs...)
}

// Song returns the song with id.
func (c *Controller) Song(id string) (model.Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.songIndex(id)
	if i < 0 {
		return model.Song{}, fmt.Errorf("song %s: %w", id, util.ErrNotFound)
	}
	return c.songs[i], nil
}

// AddSong stores a new song in the active location.
func (c *Controller) AddSong(in model.SongInput) (model.Song, error) {
	style, err := in.Validate()
	if err != nil {
		return model.Song{}, err
	}

	id, err := model.NewID()
	if err != nil {
		return model.Song{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locationIndex(c.active) < 0 {
		return model.Song{}, util.ErrNoLocation
	}

	song := model.Song{ID: id, LocationID: c.active, CreatedAt: c.nowMillis()}
	in.Apply(&song, style)

	c.registerStyle(style)
	c.songs = append(c.songs, song)
	c.saveSongs()

	c.view = ViewList
	c.events.LogSong("add", song.LocationID, song.ID, song.Title)
	return song, nil
}

// EditSong replaces the editable fields of a song; ID, location and
// creation time are kept so the song keeps its place in the list.
func (c *Controller) EditSong(id string, in model.SongInput) (model.Song, error) {
	style, err := in.Validate()
	if err != nil {
		return model.Song{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.songIndex(id)
	if i < 0 {
		return model.Song{}, fmt.Errorf("song %s: %w", id, util.ErrNotFound)
	}

	song := c.songs[i]
	in.Apply(&song, style)

	c.registerStyle(style)
	c.songs[i] = song
	c.saveSongs()

	c.editingID = ""
	if c.active != "" {
		c.view = ViewList
	}
	c.events.LogSong("edit", song.LocationID, song.ID, song.Title)
	return song, nil
}

// RemoveSongMessage is the confirmation shown before a song is deleted.
func RemoveSongMessage(title string) string {
	return fmt.Sprintf("Delete song %q?", title)
}

// RemoveSong deletes a song after confirmation.
func (c *Controller) RemoveSong(id string, confirm Confirmer) (bool, error) {
	song, err := c.Song(id)
	if err != nil {
		return false, err
	}

	if !confirm.Confirm(RemoveSongMessage(song.Title)) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.songIndex(id)
	if i < 0 {
		return false, fmt.Errorf("song %s: %w", id, util.ErrNotFound)
	}
	c.songs = append(c.songs[:i:i], c.songs[i+1:]...)
	c.saveSongs()

	if c.editingID == id {
		c.editingID = ""
		if c.view == ViewEdit {
			c.view = ViewList
		}
	}

	c.events.LogSong("remove", song.LocationID, song.ID, song.Title)
	return true, nil
}

// registerStyle adds an unseen style and persists the set. Callers hold c.mu.
func (c *Controller) registerStyle(style string) {
	if c.styles.Add(style) {
		c.saveStyles()
		c.events.LogStyle("register", style, 0)
	}
}

// FilteredView returns the active location's songs matching the current
// style filter and search, newest first. It is recomputed on every call.
func (c *Controller) FilteredView() []model.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filteredLocked()
}

func (c *Controller) filteredLocked() []model.Song {
	if c.active == "" {
		return []model.Song{}
	}
	return model.Filter(c.songs, model.Query{
		LocationID: c.active,
		Style:      c.styleFilter,
		Search:     c.search,
	})
}

// SetSearch sets the free-text search.
func (c *Controller) SetSearch(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = q
}

// SetStyleFilter restricts the view to one style; empty clears the filter.
func (c *Controller) SetStyleFilter(style string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.styleFilter = strings.TrimSpace(style)
}

// BeginAdd opens the add form.
func (c *Controller) BeginAdd() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == "" || c.view != ViewList {
		return transitionErr(c.view, "add a song")
	}
	c.view = ViewAdd
	return nil
}

// BeginEdit opens the edit form for a song and returns its current fields.
func (c *Controller) BeginEdit(id string) (model.SongInput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == "" || c.view != ViewList {
		return model.SongInput{}, transitionErr(c.view, "edit a song")
	}
	i := c.songIndex(id)
	if i < 0 {
		return model.SongInput{}, fmt.Errorf("song %s: %w", id, util.ErrNotFound)
	}
	c.editingID = id
	c.view = ViewEdit
	return model.InputOf(c.songs[i]), nil
}

// Cancel leaves the add or edit form without saving.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view != ViewAdd && c.view != ViewEdit {
		return transitionErr(c.view, "cancel")
	}
	c.editingID = ""
	c.view = ViewList
	return nil
}

// Find returns the active location's songs matching style and search,
// newest first, without touching the session filter.
func (c *Controller) Find(style, search string) ([]model.Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locationIndex(c.active) < 0 {
		return nil, util.ErrNoLocation
	}
	return model.Filter(c.songs, model.Query{
		LocationID: c.active,
		Style:      strings.TrimSpace(style),
		Search:     search,
	}), nil
}
