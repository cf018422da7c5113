package roadmap

import "time"

// timeLayout is the timestamp format used in persisted documents.
const timeLayout = time.RFC3339

// timeNow is a package-level variable for testability.
// Tests can replace this to control time in assertions.
var timeNow = time.Now

// Now returns the current time formatted for persistence.
func Now() string {
	return timeNow().UTC().Format(timeLayout)
}
