package publish

import (
	"errors"
	"fmt"
)

// ErrNotConfigured marks a per-target failure for a target name that has no
// configured publisher behind it.
var ErrNotConfigured = errors.New("target not configured")

// ValidationError rejects a broadcast request during pre-flight, before any
// persistence or dispatch. It maps to a client error at the API boundary.
type ValidationError struct {
	Target string
	Err    error
}

func (e *ValidationError) Error() string {
	return "publish: invalid request for target " + e.Target + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BroadcastError reports a broadcast in which at least one target failed. It
// carries every attempted target's outcome, successes included, so a partial
// success is never silently dropped. It maps to a service-unavailable class
// at the API boundary, distinct from the pre-flight client-error class.
type BroadcastError struct {
	Results []Result
}

func (e *BroadcastError) Error() string {
	failed := 0
	var first string
	for _, r := range e.Results {
		if r.Err == nil {
			continue
		}
		failed++
		if first == "" {
			first = r.Target + ": " + r.Err.Error()
		}
	}
	return fmt.Sprintf("publish: %d of %d targets failed (%s)", failed, len(e.Results), first)
}
