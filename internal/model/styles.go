package model

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// UncategorizedStyle is assigned to songs whose style was deleted.
const UncategorizedStyle = "Uncategorized"

// DefaultStyles seeds the style set on first run.
var DefaultStyles = []string{"Toada", "Rock", "Rock Internacional", "MPB", "Pop"}

// StyleSet is an insertion-ordered set of style tags.
// It serialises as a plain JSON array.
type StyleSet struct {
	items []string
}

// NewStyleSet builds a set from names; blanks are skipped and duplicates collapse.
func NewStyleSet(names ...string) *StyleSet {
	s := &StyleSet{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Has reports whether name is a known style.
func (s *StyleSet) Has(name string) bool {
	name = strings.TrimSpace(name)
	for _, it := range s.items {
		if it == name {
			return true
		}
	}
	return false
}

// Add registers name and reports whether the set changed.
func (s *StyleSet) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || s.Has(name) {
		return false
	}
	s.items = append(s.items, name)
	return true
}

// Remove deletes name and reports whether the set changed.
func (s *StyleSet) Remove(name string) bool {
	name = strings.TrimSpace(name)
	for i, it := range s.items {
		if it == name {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of styles.
func (s *StyleSet) Len() int {
	return len(s.items)
}

// List returns the styles in insertion order.
func (s *StyleSet) List() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Sorted returns the styles in display order (locale-aware, case-insensitive).
func (s *StyleSet) Sorted() []string {
	out := s.List()
	c := collate.New(language.Und, collate.IgnoreCase)
	c.SortStrings(out)
	return out
}

func (s *StyleSet) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

func (s *StyleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = *NewStyleSet(names...)
	return nil
}
