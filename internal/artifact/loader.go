package artifact

import (
	"sync"
	"sync/atomic"
)

// Loader is the process-scoped handle for load-on-first-use of a bundle.
// The first Get deserializes the artifact; every later call, from any
// goroutine, reuses the same immutable bundle. Concurrent first access is
// guarded by sync.Once, so exactly one load runs.
//
// A Loader is injected into the serving layer rather than held in package
// state, which keeps the warm-start behavior testable.
type Loader struct {
	path   string
	once   sync.Once
	bundle *Bundle
	err    error
	loaded atomic.Bool
}

// NewLoader creates a lazy loader for the bundle at path. Nothing is read
// until the first Get.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Get returns the cached bundle, loading it on first use. A failed load is
// sticky for the lifetime of the Loader; the caller surfaces it as a
// service-unavailable condition and a fresh Loader retries.
func (l *Loader) Get() (*Bundle, error) {
	l.once.Do(func() {
		l.bundle, l.err = Load(l.path)
		if l.err == nil {
			l.loaded.Store(true)
		}
	})
	return l.bundle, l.err
}

// Ready reports whether the bundle is currently held in process memory.
// It never triggers a load; the readiness surface uses it.
func (l *Loader) Ready() bool {
	return l.loaded.Load()
}

// Path returns the artifact location this loader reads from.
func (l *Loader) Path() string {
	return l.path
}
