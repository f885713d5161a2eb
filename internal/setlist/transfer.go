package setlist

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/store"
	"github.com/franz/setlist/internal/util"
)

// Keys used by the browser app's localStorage; dumps of it import as-is
var legacyKeys = map[string]string{
	"xp_locations":        store.KeyLocations,
	"xp_setlist_songs_v2": store.KeySongs,
	"xp_custom_styles_v2": store.KeyStyles,
	"xp_last_location":    store.KeyLastLocation,
}

// Backup is the exported state.
type Backup struct {
	Locations    []model.Location `json:"locations"`
	Songs        []model.Song     `json:"songs"`
	Styles       *model.StyleSet  `json:"custom_styles"`
	LastLocation string           `json:"last_location,omitempty"`
}

// Export writes every collection as one JSON object.
func (c *Controller) Export(w io.Writer) (Backup, error) {
	c.mu.Lock()
	backup := Backup{
		Locations:    append([]model.Location{}, c.locations...),
		Songs:        append([]model.Song{}, c.songs...),
		Styles:       model.NewStyleSet(c.styles.List()...),
		LastLocation: c.active,
	}
	c.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return backup, fmt.Errorf("failed to write export: %w", err)
	}
	return backup, nil
}

// ParseBackup reads an export or a localStorage dump. Values may be JSON
// values or JSON documents wrapped in strings.
func ParseBackup(r io.Reader) (Backup, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Backup{}, fmt.Errorf("%w: not a JSON object: %v", util.ErrValidation, err)
	}

	values := make(map[string][]byte, len(raw))
	for key, value := range raw {
		if mapped, ok := legacyKeys[key]; ok {
			key = mapped
		}
		values[key] = unwrapString(value)
	}

	found := false
	for _, key := range store.StateKeys {
		if _, ok := values[key]; ok {
			found = true
		}
	}
	if !found {
		return Backup{}, fmt.Errorf("%w: no setlist data in file", util.ErrValidation)
	}

	var b Backup
	b.Locations, _ = model.DecodeLocations(values[store.KeyLocations])
	if b.Locations == nil {
		b.Locations = []model.Location{}
	}
	b.Songs, _ = model.DecodeSongs(values[store.KeySongs])
	if b.Songs == nil {
		b.Songs = []model.Song{}
	}
	if styles, ok := model.DecodeStyles(values[store.KeyStyles]); ok {
		b.Styles = styles
	} else {
		b.Styles = model.NewStyleSet(model.DefaultStyles...)
	}
	b.LastLocation, _ = model.DecodeLocationID(values[store.KeyLastLocation])

	// songs keep their style even if the dump's style list lost it
	for _, s := range b.Songs {
		b.Styles.Add(s.Style)
	}
	return b, nil
}

// unwrapString returns the inner document when value is a JSON string that
// itself holds JSON (localStorage keeps strings only)
func unwrapString(value json.RawMessage) []byte {
	trimmed := strings.TrimSpace(string(value))
	if !strings.HasPrefix(trimmed, `"`) {
		return value
	}
	var inner string
	if err := json.Unmarshal(value, &inner); err != nil {
		return value
	}
	inner = strings.TrimSpace(inner)
	if strings.HasPrefix(inner, "[") || strings.HasPrefix(inner, "{") {
		return []byte(inner)
	}
	return value
}

// ImportMessage is the confirmation shown before an import replaces the state.
func ImportMessage(curLocations, curSongs int, b Backup) string {
	return fmt.Sprintf("Replace %d locations and %d songs with %d locations and %d songs from the file?",
		curLocations, curSongs, len(b.Locations), len(b.Songs))
}

// Import replaces every collection with the backup after confirmation.
func (c *Controller) Import(b Backup, confirm Confirmer) (bool, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return false, util.ErrBusy
	}
	msg := ImportMessage(len(c.locations), len(c.songs), b)
	c.mu.Unlock()

	if !confirm.Confirm(msg) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.locations = append([]model.Location{}, b.Locations...)
	c.songs = append([]model.Song{}, b.Songs...)
	c.styles = model.NewStyleSet(b.Styles.List()...)
	c.saveLocations()
	c.saveSongs()
	c.saveStyles()

	c.search = ""
	c.styleFilter = ""
	c.editingID = ""
	c.ordering = nil
	c.active = ""
	c.view = ViewLocations
	if b.LastLocation != "" && c.locationIndex(b.LastLocation) >= 0 {
		c.active = b.LastLocation
		c.view = ViewList
		c.saveActive()
	}

	return true, nil
}
