package model

import (
	"encoding/json"
	"strings"
)

// DecodeLocations parses a persisted locations collection.
// ok is false when raw is empty or not a JSON array of locations; entries
// without an ID are dropped.
func DecodeLocations(raw []byte) (locations []Location, ok bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var decoded []Location
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	locations = make([]Location, 0, len(decoded))
	for _, l := range decoded {
		if l.ID == "" {
			continue
		}
		locations = append(locations, l)
	}
	return locations, true
}

// DecodeSongs parses a persisted songs collection; see DecodeLocations.
func DecodeSongs(raw []byte) (songs []Song, ok bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var decoded []Song
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	songs = make([]Song, 0, len(decoded))
	for _, s := range decoded {
		if s.ID == "" {
			continue
		}
		songs = append(songs, s)
	}
	return songs, true
}

// DecodeStyles parses a persisted style collection.
func DecodeStyles(raw []byte) (*StyleSet, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	set := &StyleSet{}
	if err := json.Unmarshal(raw, set); err != nil {
		return nil, false
	}
	return set, true
}

// DecodeLocationID parses the remembered location identifier. Both a JSON
// string and a bare identifier (how browsers keep it) are accepted.
func DecodeLocationID(raw []byte) (string, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", false
	}
	if strings.HasPrefix(text, `"`) {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", false
		}
		text = id
	}
	if text == "" {
		return "", false
	}
	return text, true
}
