package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrValidation indicates a form submission is missing required fields
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrNoLocation indicates an operation needs an active location
	ErrNoLocation = errors.New("no location selected")

	// ErrTooFewSongs indicates an ordering was requested for fewer than 2 songs
	ErrTooFewSongs = errors.New("at least 2 songs are needed to suggest an order")

	// ErrBusy indicates an AI ordering request is already in flight
	ErrBusy = errors.New("a suggestion is already in progress")

	// ErrStyleInUse indicates a style cannot be removed while songs carry it
	ErrStyleInUse = errors.New("style is in use")

	// ErrInvalidTransition indicates a view change that is not allowed from the current view
	ErrInvalidTransition = errors.New("invalid view transition")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupported indicates a file format or operation is not supported
	ErrUnsupported = errors.New("unsupported")
)
