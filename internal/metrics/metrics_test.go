package metrics

import (
	"testing"
	"time"
)

// TestInitIdempotent ensures repeated Init calls do not re-register
// collectors (promauto panics on duplicate registration).
func TestInitIdempotent(t *testing.T) {
	Init()
	Init()
}

// TestObserversDoNotPanic exercises each recording helper once.
func TestObserversDoNotPanic(t *testing.T) {
	Init()

	ObserveScrape("article", "success", 120*time.Millisecond)
	ObserveScrape("", "service_failure", time.Second)
	ObserveUpsert(true, 42)
	ObserveUpsert(false, 0)
	ObserveJob("completed")
	ObserveRateLimitDelay(50 * time.Millisecond)
	ObserveHTTPRequest("GET", "/metrics", 5*time.Millisecond)
}

// TestHandler confirms the exposition handler is constructed.
func TestHandler(t *testing.T) {
	Init()
	if Handler() == nil {
		t.Fatal("expected non-nil metrics handler")
	}
}
