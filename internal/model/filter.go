package model

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Query selects the songs shown in the catalog view.
type Query struct {
	LocationID string // songs must belong to this location
	Style      string // empty means every style
	Search     string // case-insensitive substring of title or band
}

// Filter returns the songs matching q, newest first. It never modifies songs.
// Songs created in the same millisecond are ordered by ID so the result is deterministic.
func Filter(songs []Song, q Query) []Song {
	needle := foldText(q.Search)
	out := make([]Song, 0, len(songs))
	for _, s := range songs {
		if s.LocationID != q.LocationID {
			continue
		}
		if q.Style != "" && s.Style != q.Style {
			continue
		}
		if needle != "" && !strings.Contains(foldText(s.Title), needle) && !strings.Contains(foldText(s.Band), needle) {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// MatchesSearch reports whether text contains query, ignoring case.
func MatchesSearch(text, query string) bool {
	return strings.Contains(foldText(text), foldText(query))
}

// foldText puts s in NFC so composed and decomposed accents compare equal, then lowercases it.
func foldText(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// CountByStyle returns how many songs carry style, across all locations.
func CountByStyle(songs []Song, style string) int {
	n := 0
	for _, s := range songs {
		if s.Style == style {
			n++
		}
	}
	return n
}

// CountByLocation returns how many songs belong to locationID.
func CountByLocation(songs []Song, locationID string) int {
	n := 0
	for _, s := range songs {
		if s.LocationID == locationID {
			n++
		}
	}
	return n
}
