package studio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/artifex/backend/internal/model/studio"
)

const defaultIdleTTL = time.Hour

// Options configures the session registry.
type Options struct {
	// DefaultAPIKey seeds the credential of new sessions.
	DefaultAPIKey string
	// IdleTTL is how long a session may go untouched before Prune drops it.
	IdleTTL time.Duration
}

type entry struct {
	busy     sync.Mutex
	ctrl     *Controller
	lastSeen atomic.Int64
}

func (e *entry) touch(now time.Time) {
	e.lastSeen.Store(now.UnixNano())
}

// Service keeps the sessions of all connected users. Each session runs at
// most one intent at a time; a concurrent intent is rejected, not queued.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	deps    Dependencies
	apiKey  string
	idleTTL time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewService bootstraps the in-memory session registry.
func NewService(deps Dependencies, opts Options) *Service {
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = deps.Logger.With().Str("component", "sessions").Logger()
	}
	now := deps.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
		deps.Clock = now
	}
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	return &Service{
		sessions: make(map[string]*entry),
		deps:     deps,
		apiKey:   opts.DefaultAPIKey,
		idleTTL:  ttl,
		now:      now,
		logger:   logger,
	}
}

// CreateSession provisions a session on the home screen.
func (s *Service) CreateSession(_ context.Context) (studio.Session, error) {
	now := s.now()
	session := studio.NewSession(uuid.NewString(), s.apiKey, now)

	e := &entry{ctrl: NewController(session, s.deps)}
	e.touch(now)

	s.mu.Lock()
	s.sessions[session.ID] = e
	s.mu.Unlock()

	s.logger.Info().Str("session", session.ID).Msg("session created")
	return e.ctrl.Session(), nil
}

func (s *Service) lookup(sessionID string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// GetSession returns a copy of the session's last committed state.
func (s *Service) GetSession(_ context.Context, sessionID string) (studio.Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return studio.Session{}, err
	}
	e.touch(s.now())
	return e.ctrl.Session(), nil
}

// Render describes the session's current screen.
func (s *Service) Render(ctx context.Context, sessionID string) (studio.ScreenDescription, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return studio.ScreenDescription{}, err
	}
	return studio.Render(session), nil
}

// Busy reports whether an intent is currently running for the session.
func (s *Service) Busy(sessionID string) (bool, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return false, err
	}
	if e.busy.TryLock() {
		e.busy.Unlock()
		return false, nil
	}
	return true, nil
}

// Dispatch applies one intent to the session and returns the screen to show
// next. The description reflects the session after the intent, so callers
// can re-render even when err is non-nil.
func (s *Service) Dispatch(ctx context.Context, sessionID string, in Intent) (studio.ScreenDescription, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return studio.ScreenDescription{}, err
	}
	if !e.busy.TryLock() {
		return e.ctrl.Render(), ErrSessionBusy
	}
	defer e.busy.Unlock()

	start := s.now()
	err = e.ctrl.Apply(ctx, in)
	e.touch(s.now())

	event := s.logger.Debug()
	if err != nil {
		event = s.logger.Info().Err(err).Str("kind", string(KindOf(err)))
	}
	event.
		Str("session", sessionID).
		Str("intent", string(in.Type)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("intent handled")

	return e.ctrl.Render(), err
}

// DeleteSession drops the session. A running intent finishes against the
// detached controller.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than the configured TTL. Sessions
// running an intent are kept.
func (s *Service) Prune() int {
	cutoff := s.now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Load() > cutoff {
			continue
		}
		if !e.busy.TryLock() {
			continue
		}
		delete(s.sessions, id)
		e.busy.Unlock()
		removed++
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Int("remaining", len(s.sessions)).Msg("pruned idle sessions")
	}
	return removed
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
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
			s.Prune()
		}
	}
}
