package model

import "errors"

// Error taxonomy shared by all packages. Callers wrap these with
// fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrValidation marks malformed input (bad date, bad duration, empty name).
	ErrValidation = errors.New("validation failed")
	// ErrReference marks a type id that does not exist in the catalog.
	ErrReference = errors.New("unknown event type")
	// ErrNotFound is returned when updating an event type that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrProtected is returned when removing a built-in event type.
	ErrProtected = errors.New("event type is protected")
	// ErrInUse is returned when removing an event type still referenced by events.
	ErrInUse = errors.New("event type is in use")
	// ErrImportFormat aborts an import whose document is not a JSON object.
	ErrImportFormat = errors.New("import document is malformed")
	// ErrExportRendering is returned when the rendering collaborator fails.
	ErrExportRendering = errors.New("report rendering failed")
)
