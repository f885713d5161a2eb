// Package setlist owns the application state: the canonical collections of
// locations, songs and styles, the session view state and the write-through
// to the store. Every presentation surface drives one Controller.
package setlist

import (
	"sync"
	"time"

	"github.com/franz/setlist/internal/assist"
	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/report"
	"github.com/franz/setlist/internal/store"
	"github.com/franz/setlist/internal/util"
)

// Options configures a Controller.
type Options struct {
	// Assistant answers ordering and tip requests; nil means every request falls back.
	Assistant *assist.Assistant
	// Events receives the audit trail; nil disables it.
	Events *report.EventLogger
	// Now stamps new records; defaults to time.Now.
	Now func() time.Time
}

// Controller is the single owner of application state.
// All methods are safe for concurrent use; they serialise on one mutex,
// which is released while an AI request is in flight.
type Controller struct {
	mu sync.Mutex

	kv     *store.KV
	assist *assist.Assistant
	events *report.EventLogger
	now    func() time.Time

	locations []model.Location
	songs     []model.Song
	styles    *model.StyleSet
	active    string

	view        View
	search      string
	styleFilter string
	editingID   string
	ordering    []string
	busy        bool
}

// New loads the persisted state and resumes the last selected location.
func New(kv *store.KV, opts Options) *Controller {
	c := &Controller{
		kv:     kv,
		assist: opts.Assistant,
		events: opts.Events,
		now:    opts.Now,
	}
	if c.assist == nil {
		c.assist = assist.Offline()
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.load()
	c.resume()
	return c
}

// load replaces the collections with what the store holds
func (c *Controller) load() {
	c.locations = []model.Location{}
	if raw, ok := c.kv.Load(store.KeyLocations); ok {
		if locs, ok := model.DecodeLocations(raw); ok {
			c.locations = locs
		} else {
			util.DebugLog("setlist: stored locations unreadable, starting empty")
		}
	}

	c.songs = []model.Song{}
	if raw, ok := c.kv.Load(store.KeySongs); ok {
		if songs, ok := model.DecodeSongs(raw); ok {
			c.songs = songs
		} else {
			util.DebugLog("setlist: stored songs unreadable, starting empty")
		}
	}

	c.styles = nil
	if raw, ok := c.kv.Load(store.KeyStyles); ok {
		if styles, ok := model.DecodeStyles(raw); ok {
			c.styles = styles
		}
	}
	if c.styles == nil {
		c.styles = model.NewStyleSet(model.DefaultStyles...)
		c.kv.Save(store.KeyStyles, c.styles)
	}
}

// resume selects the remembered location when it still exists
func (c *Controller) resume() {
	c.active = ""
	c.view = ViewLocations

	raw, ok := c.kv.Load(store.KeyLastLocation)
	if !ok {
		return
	}
	id, ok := model.DecodeLocationID(raw)
	if !ok || c.locationIndex(id) < 0 {
		util.DebugLog("setlist: remembered location is gone, showing the directory")
		return
	}
	c.active = id
	c.view = ViewList
}

// Reload re-reads the store, keeping session state that is still valid.
// Used when another process changed the store.
func (c *Controller) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.load()

	if c.active != "" && c.locationIndex(c.active) < 0 {
		c.active = ""
		c.view = ViewLocations
	}
	if c.editingID != "" && c.songIndex(c.editingID) < 0 {
		c.editingID = ""
		if c.view == ViewEdit {
			c.view = ViewList
		}
	}
	if c.styleFilter != "" && !c.styles.Has(c.styleFilter) {
		c.styleFilter = ""
	}
}

// State is a read-only snapshot of the session.
type State struct {
	View           View
	ActiveLocation *model.Location
	Search         string
	StyleFilter    string
	EditingID      string
	Busy           bool
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		View:        c.view,
		Search:      c.search,
		StyleFilter: c.styleFilter,
		EditingID:   c.editingID,
		Busy:        c.busy,
	}
	if i := c.locationIndex(c.active); i >= 0 {
		loc := c.locations[i]
		s.ActiveLocation = &loc
	}
	return s
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Busy reports whether an ordering request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Assistant returns the AI collaborator.
func (c *Controller) Assistant() *assist.Assistant {
	return c.assist
}

// Events returns the audit logger.
func (c *Controller) Events() *report.EventLogger {
	return c.events
}

// Catalog returns a copy of every collection for reporting.
func (c *Controller) Catalog() report.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return report.Catalog{
		Locations:    append([]model.Location(nil), c.locations...),
		Songs:        append([]model.Song(nil), c.songs...),
		Styles:       model.NewStyleSet(c.styles.List()...),
		LastLocation: c.active,
	}
}

func (c *Controller) nowMillis() int64 {
	return c.now().UnixMilli()
}

func (c *Controller) locationIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, l := range c.locations {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) songIndex(id string) int {
	for i, s := range c.songs {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) saveLocations() {
	c.kv.Save(store.KeyLocations, c.locations)
}

func (c *Controller) saveSongs() {
	c.kv.Save(store.KeySongs, c.songs)
}

func (c *Controller) saveStyles() {
	c.kv.Save(store.KeyStyles, c.styles)
}

func (c *Controller) saveActive() {
	c.kv.Save(store.KeyLastLocation, c.active)
}
