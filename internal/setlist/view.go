package setlist

import (
	"fmt"

	"github.com/franz/setlist/internal/util"
)

// View is the screen the session is on.
type View string

const (
	ViewLocations View = "locations"
	ViewList      View = "list"
	ViewAdd       View = "add"
	ViewEdit      View = "edit"
	ViewAISetlist View = "ai-setlist"
)

// transitionErr reports a view change that is not allowed from the current view
func transitionErr(from View, action string) error {
	return fmt.Errorf("%w: cannot %s from the %s view", util.ErrInvalidTransition, action, from)
}

// Confirmer gates destructive actions on an explicit yes.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}

// AlwaysConfirm answers yes without asking (--yes, confirm=true).
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

// NeverConfirm declines every destructive action.
var NeverConfirm Confirmer = ConfirmFunc(func(string) bool { return false })
