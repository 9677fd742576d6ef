package clipboard

import "errors"

// ErrEmpty is returned by ReadText when the clipboard holds no text.
var ErrEmpty = errors.New("clipboard: no text content")

// ErrUnsupported is returned by New for an unknown or unavailable backend.
var ErrUnsupported = errors.New("clipboard: unsupported backend")

// ErrCommand wraps failures of the external clipboard tools.
var ErrCommand = errors.New("clipboard: command failed")
