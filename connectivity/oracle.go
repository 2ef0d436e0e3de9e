// Package connectivity reports whether the upstream network is reachable.
//
// The HTTP client and the cache store both receive an Oracle through their
// constructors; nothing reads a package-level flag.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Oracle answers the reachability question synchronously
type Oracle interface {
	IsOffline() bool
}

// Notifier is implemented by oracles that can push state changes.
// The returned function removes the subscription.
type Notifier interface {
	Subscribe(fn func(offline bool)) (unsubscribe func())
}

// subscribers is the shared push plumbing for Manual and Probe
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(bool)
}

func (s *subscribers) add(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fns == nil {
		s.fns = make(map[int]func(bool))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) notify(offline bool) {
	s.mu.Lock()
	fns := make([]func(bool), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(offline)
	}
}

// Manual is an Oracle whose state is set explicitly (--offline flag, tests)
type Manual struct {
	offline atomic.Bool
	subs    subscribers
}

// NewManual creates a Manual oracle with the given initial state
func NewManual(offline bool) *Manual {
	m := &Manual{}
	m.offline.Store(offline)
	return m
}

// IsOffline implements Oracle
func (m *Manual) IsOffline() bool {
	return m.offline.Load()
}

// SetOffline updates the state and notifies subscribers when it changes
func (m *Manual) SetOffline(offline bool) {
	if m.offline.Swap(offline) != offline {
		m.subs.notify(offline)
	}
}

// Subscribe implements Notifier
func (m *Manual) Subscribe(fn func(offline bool)) func() {
	return m.subs.add(fn)
}

// Probe polls a URL and reports offline when it cannot be reached
type Probe struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   zerolog.Logger

	offline atomic.Bool
	subs    subscribers
}

// NewProbe creates a polling oracle. It starts in the online state until the
// first check completes.
func NewProbe(url string, interval time.Duration, logger zerolog.Logger) *Probe {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Probe{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

// IsOffline implements Oracle
func (p *Probe) IsOffline() bool {
	return p.offline.Load()
}

// Subscribe implements Notifier
func (p *Probe) Subscribe(fn func(offline bool)) func() {
	return p.subs.add(fn)
}

// Check performs one reachability probe and records the result
func (p *Probe) Check(ctx context.Context) bool {
	offline := !p.reachable(ctx)
	if ctx.Err() != nil {
		return p.offline.Load()
	}
	if p.offline.Swap(offline) != offline {
		p.logger.Info().Bool("offline", offline).Str("url", p.url).Msg("Connectivity changed")
		p.subs.notify(offline)
	}
	return offline
}

func (p *Probe) reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Str("url", p.url).Msg("Connectivity probe failed")
		return false
	}
	resp.Body.Close()
	// Any HTTP answer means the network path works, even a 4xx/5xx
	return true
}

// Run checks immediately and then on every interval until ctx is done
func (p *Probe) Run(ctx context.Context) {
	p.Check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
