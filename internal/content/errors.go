package content

import (
	"errors"
	"fmt"
)

// ErrNoContent signals that the extraction service responded but
// yielded no usable payload. The pipeline reports it like a service
// failure and persists nothing.
var ErrNoContent = errors.New("no content extracted")

// ErrPersistence marks storage faults. Unlike scrape failures these are
// propagated to the caller, since the system can no longer guarantee
// its own invariants.
var ErrPersistence = errors.New("persistence failure")

// ScrapeFailure describes a reported, non-fatal scrape outcome: the
// service call failed or returned nothing extractable.
type ScrapeFailure struct {
	URL    string
	Reason string
}

// Error implements the error interface so failures can be logged and
// wrapped uniformly, even though the orchestrator returns them as
// values rather than errors.
func (f *ScrapeFailure) Error() string {
	return fmt.Sprintf("scrape %s: %s", f.URL, f.Reason)
}
