package httpclient

import (
	"net/url"
	"sync"
)

// HostSemaphore caps in-flight requests per upstream host. The refresh loop,
// the one-shot CLI commands and any test against the same provider all go
// through GlobalHostSem, so the provider sees a bounded number of concurrent
// connections from this process no matter how many clients were built.
type HostSemaphore struct {
	limit int

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// GlobalHostSem is the process-wide limiter, 4 slots per host.
var GlobalHostSem = NewHostSemaphore(4)

// NewHostSemaphore returns a limiter allowing concurrency simultaneous
// requests per host key. Values below 1 are raised to 1.
func NewHostSemaphore(concurrency int) *HostSemaphore {
	if concurrency < 1 {
		concurrency = 1
	}
	return &HostSemaphore{
		limit: concurrency,
		slots: make(map[string]chan struct{}),
	}
}

// Acquire blocks until a slot for target's host frees up and returns the
// release func. target may be a full URL; everything past scheme and host is
// ignored when forming the key.
//
//	release := GlobalHostSem.Acquire(src)
//	defer release()
func (h *HostSemaphore) Acquire(target string) func() {
	slot := h.slot(hostKey(target))
	slot <- struct{}{}
	return func() { <-slot }
}

func (h *HostSemaphore) slot(key string) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.slots[key]
	if !ok {
		c = make(chan struct{}, h.limit)
		h.slots[key] = c
	}
	return c
}

// hostKey reduces target to scheme://host so that every path on one
// provider draws from the same slot pool. Strings that do not parse as a
// URL with a host are used verbatim.
func hostKey(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	return u.Scheme + "://" + u.Host
}
