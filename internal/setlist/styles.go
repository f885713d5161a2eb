package setlist

import (
	"fmt"
	"strings"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/util"
)

// Styles returns the known styles in display order.
func (c *Controller) Styles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.styles.Sorted()
}

// StyleUsage returns how many songs, across all locations, carry style.
func (c *Controller) StyleUsage(style string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CountByStyle(c.songs, style)
}

// DeleteStyleMessage is the confirmation shown before a style is deleted.
func DeleteStyleMessage(name string, songs int) string {
	switch songs {
	case 0:
		return fmt.Sprintf("Delete style %q?", name)
	case 1:
		return fmt.Sprintf("1 song uses style %q and will be moved to %q. Delete the style?",
			name, model.UncategorizedStyle)
	default:
		return fmt.Sprintf("%d songs use style %q and will be moved to %q. Delete the style?",
			songs, name, model.UncategorizedStyle)
	}
}

// DeleteStyle removes a style from the set after confirmation. Songs that
// carry it are moved to the Uncategorized style.
func (c *Controller) DeleteStyle(name string, confirm Confirmer) (bool, error) {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	if !c.styles.Has(name) {
		c.mu.Unlock()
		return false, fmt.Errorf("style %q: %w", name, util.ErrNotFound)
	}
	count := model.CountByStyle(c.songs, name)
	c.mu.Unlock()

	if name == model.UncategorizedStyle && count > 0 {
		return false, fmt.Errorf("%w: %d songs use %q", util.ErrStyleInUse, count, name)
	}

	if !confirm.Confirm(DeleteStyleMessage(name, count)) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	reassigned := 0
	for i := range c.songs {
		if c.songs[i].Style == name {
			c.songs[i].Style = model.UncategorizedStyle
			reassigned++
		}
	}

	c.styles.Remove(name)
	if reassigned > 0 {
		c.styles.Add(model.UncategorizedStyle)
		c.saveSongs()
	}
	c.saveStyles()

	if c.styleFilter == name {
		c.styleFilter = ""
	}

	c.events.LogStyle("delete", name, reassigned)
	return true, nil
}
