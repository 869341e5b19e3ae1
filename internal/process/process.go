// Package process cleans up the browser process tree left behind by the
// launcher when a browser is shut down or found dead.
package process

import "errors"

// ErrInvalidPID is returned for PIDs that would target the caller's own
// process group.
var ErrInvalidPID = errors.New("invalid pid")
