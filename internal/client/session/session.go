package session

import (
	"database/sql"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/logging"
)

type Status string

const (
	StatusInitializing  Status = "initializing"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Snapshot is an immutable view of the session. Principal is non-nil
// exactly when Status is StatusAuthenticated.
type Snapshot struct {
	Status     Status
	Credential string
	Principal  *models.Principal
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Principal != nil
}

// HasRole reports whether the session is authenticated with role r.
func (s Snapshot) HasRole(r models.Role) bool {
	return s.IsAuthenticated() && s.Principal.Role == r
}

// Gateway is the part of the Request Gateway the store drives.
type Gateway interface {
	SetCredential(tok string)
	ClearCredential()
	Credential() string
	OnAuthFailure(fn func(client.AuthFailure)) (dispose func())
}

type Option func(*Store)

// WithPassphrase seals the persisted credential with a key derived from p.
func WithPassphrase(p string) Option {
	return func(s *Store) {
		if p != "" {
			s.passphrase = []byte(p)
		}
	}
}

// WithClock overrides the time source used for credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds the session and is its only writer.
type Store struct {
	gw         Gateway
	api        client.AuthAPI
	db         *sql.DB
	logger     logging.Logger
	passphrase []byte
	now        func() time.Time

	mu     sync.Mutex
	snap   Snapshot
	detach func()

	restoreStarted bool

	// notifyMu serializes subscriber delivery so they observe changes in order.
	notifyMu  sync.Mutex
	subsMu    sync.Mutex
	subs      map[uint64]func(Snapshot)
	nextSubID uint64
}

func NewStore(gw Gateway, api client.AuthAPI, db *sql.DB, logger logging.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Store{
		gw:     gw,
		api:    api,
		db:     db,
		logger: logger.With("component", "session"),
		now:    time.Now,
		snap:   Snapshot{Status: StatusInitializing},
		subs:   make(map[uint64]func(Snapshot)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn to receive every session change. fn must not call
// back into the Store's mutating methods. The disposer is idempotent.
func (s *Store) Subscribe(fn func(Snapshot)) (dispose func()) {
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// Attach installs the 401 observer on the gateway. Calling it again while
// attached does nothing.
func (s *Store) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detach != nil {
		return
	}
	s.detach = s.gw.OnAuthFailure(s.handleAuthFailure)
}

// Detach removes the 401 observer.
func (s *Store) Detach() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// setLocked replaces the snapshot and delivers it to subscribers. It must be
// called with s.mu held and releases it.
func (s *Store) setLocked(next Snapshot) {
	changed := next.Status != s.snap.Status || next.Credential != s.snap.Credential || next.Principal != s.snap.Principal
	s.snap = next
	if !changed {
		s.mu.Unlock()
		return
	}

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		fns = append(fns, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

func anonymous() Snapshot {
	return Snapshot{Status: StatusAnonymous}
}
