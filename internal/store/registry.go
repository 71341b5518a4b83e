package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "storefront_sessions_active",
	Help: "Page sessions currently held in memory",
})

// Session is one shopper's page session: both containers, the transfer
// between them and the event stream they publish on.
type Session struct {
	ID       string
	Cart     *Cart
	Wishlist *Wishlist
	Transfer *Transfer
	Events   *Broadcaster

	lastUsed atomic.Int64 // unix nanos
}

// NewSession wires a session around remote.
func NewSession(id string, remote adapter.Remote, pricing model.Pricing, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("session", shortID(id)))
	events := NewBroadcaster()
	cart := NewCart(remote, pricing, events, logger)
	wishlist := NewWishlist(remote, events, logger)
	return &Session{
		ID:       id,
		Cart:     cart,
		Wishlist: wishlist,
		Transfer: NewTransfer(cart, wishlist, logger),
		Events:   events,
	}
}

// Load refreshes both lists concurrently. Each list is replaced only if its
// own fetch succeeds; the first error is returned.
func (s *Session) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Cart.Load(ctx) })
	g.Go(func() error { return s.Wishlist.Load(ctx) })
	return g.Wait()
}

// EnsureLoaded loads whichever list has never been loaded.
func (s *Session) EnsureLoaded(ctx context.Context) error {
	var g errgroup.Group
	if !s.Cart.list.isLoaded() {
		g.Go(func() error { return s.Cart.Load(ctx) })
	}
	if !s.Wishlist.list.isLoaded() {
		g.Go(func() error { return s.Wishlist.Load(ctx) })
	}
	return g.Wait()
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// RemoteFactory builds the remote client for a session id.
type RemoteFactory func(sessionID string) adapter.Remote

// Registry owns every live session and evicts idle ones.
type Registry struct {
	factory RemoteFactory
	pricing model.Pricing
	idleTTL time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	nowFunc  func() time.Time // injectable clock for testing
}

// NewRegistry creates an empty registry. A zero idleTTL disables eviction.
func NewRegistry(factory RemoteFactory, pricing model.Pricing, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory:  factory,
		pricing:  pricing,
		idleTTL:  idleTTL,
		logger:   logger,
		sessions: make(map[string]*Session),
		nowFunc:  time.Now,
	}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = NewSession(id, r.factory(id), r.pricing, r.logger)
		r.sessions[id] = s
		activeSessions.Set(float64(len(r.sessions)))
	}
	s.touch(r.nowFunc())
	return s
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.touch(r.nowFunc())
	}
	return s, ok
}

// Drop discards a session, e.g. on logout, and closes its event stream.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	activeSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
	if ok {
		s.Events.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle longer than the ttl. Sessions with a live
// event subscriber are kept. Returns the number evicted.
func (r *Registry) Evict() int {
	if r.idleTTL <= 0 {
		return 0
	}
	now := r.nowFunc()

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.idleTTL && s.Events.Subscribers() == 0 {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	activeSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range stale {
		s.Events.Close()
	}
	if len(stale) > 0 {
		r.logger.Debug("evicted idle sessions", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}

// Close drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	activeSessions.Set(0)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Events.Close()
	}
}

// shortID keeps session ids out of logs in full.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
