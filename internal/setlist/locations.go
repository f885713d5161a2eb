package setlist

import (
	"fmt"
	"strings"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/util"
)

// Locations returns every location in insertion order.
func (c *Controller) Locations() []model.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Location{}, c.locations...)
}

// Location returns the location with id.
func (c *Controller) Location(id string) (model.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.locationIndex(id)
	if i < 0 {
		return model.Location{}, fmt.Errorf("location %s: %w", id, util.ErrNotFound)
	}
	return c.locations[i], nil
}

// SongCount returns how many songs belong to a location.
func (c *Controller) SongCount(locationID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CountByLocation(c.songs, locationID)
}

// CreateLocation adds a venue and makes it the active selection.
func (c *Controller) CreateLocation(name string) (model.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Location{}, fmt.Errorf("%w: missing name", util.ErrValidation)
	}

	id, err := model.NewID()
	if err != nil {
		return model.Location{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	loc := model.Location{ID: id, Name: name, CreatedAt: c.nowMillis()}
	c.locations = append(c.locations, loc)
	c.saveLocations()

	c.selectLocked(loc.ID)
	c.events.LogLocation("create", loc.ID, loc.Name, 0)
	return loc, nil
}

// DeleteLocationMessage is the confirmation shown before a cascade delete.
func DeleteLocationMessage(name string, songs int) string {
	switch songs {
	case 0:
		return fmt.Sprintf("Delete location %q?", name)
	case 1:
		return fmt.Sprintf("Deleting location %q also removes its 1 song. Continue?", name)
	default:
		return fmt.Sprintf("Deleting location %q also removes its %d songs. Continue?", name, songs)
	}
}

// DeleteLocation removes a location and every song that belongs to it.
// It returns false without changes when the confirmer declines.
func (c *Controller) DeleteLocation(id string, confirm Confirmer) (bool, error) {
	c.mu.Lock()
	i := c.locationIndex(id)
	if i < 0 {
		c.mu.Unlock()
		return false, fmt.Errorf("location %s: %w", id, util.ErrNotFound)
	}
	loc := c.locations[i]
	count := model.CountByLocation(c.songs, id)
	c.mu.Unlock()

	if !confirm.Confirm(DeleteLocationMessage(loc.Name, count)) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// the location may have gone while the confirmer was asking
	i = c.locationIndex(id)
	if i < 0 {
		return false, fmt.Errorf("location %s: %w", id, util.ErrNotFound)
	}
	c.locations = append(c.locations[:i:i], c.locations[i+1:]...)

	kept := make([]model.Song, 0, len(c.songs))
	removed := 0
	for _, s := range c.songs {
		if s.LocationID == id {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	c.songs = kept

	c.saveLocations()
	c.saveSongs()

	if c.active == id {
		c.active = ""
		c.editingID = ""
		c.ordering = nil
		c.view = ViewLocations
	}

	c.events.LogLocation("delete", id, loc.Name, removed)
	return true, nil
}

// SelectLocation makes id the active location and remembers it for the next session.
func (c *Controller) SelectLocation(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locationIndex(id) < 0 {
		return "", fmt.Errorf("location %s: %w", id, util.ErrNotFound)
	}
	c.selectLocked(id)
	c.events.LogLocation("select", id, "", 0)
	return id, nil
}

func (c *Controller) selectLocked(id string) {
	if c.active != id {
		c.ordering = nil
		c.styleFilter = ""
		c.search = ""
	}
	c.active = id
	c.editingID = ""
	c.saveActive()
	c.view = ViewList
}

// ChangeLocation returns to the directory. The selection stays remembered.
func (c *Controller) ChangeLocation() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.view {
	case ViewList, ViewAISetlist, ViewLocations:
		c.view = ViewLocations
		return nil
	}
	return transitionErr(c.view, "change location")
}

// ActiveLocation returns the selected location, if any.
func (c *Controller) ActiveLocation() (model.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.locationIndex(c.active)
	if i < 0 {
		return model.Location{}, false
	}
	return c.locations[i], true
}
