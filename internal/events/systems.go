package events

import (
	"time"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/registry"
	"github.com/gs2core/server/internal/session"
)

// SaveSystem persists every Loaded session's account record once every
// SaveInterval seconds (§4.4 Loaded: "periodic save every savetime
// seconds").
type SaveSystem struct {
	Registry     *registry.Registry
	SaveInterval time.Duration
	Save         func(*session.Session) error
	Log          *zap.Logger

	lastRun time.Time
}

func (s *SaveSystem) Phase() TickPhase { return PhaseTimedEvents }

func (s *SaveSystem) Tick(now time.Time) {
	if now.Sub(s.lastRun) < s.SaveInterval {
		return
	}
	s.lastRun = now
	for _, sess := range s.Registry.ByClass(protocol.ClassClient, nil) {
		if sess.Phase() != protocol.PhaseLoaded {
			continue
		}
		if err := s.Save(sess); err != nil {
			s.Log.Warn("periodic save failed", zap.Uint64("session", sess.ID), zap.Error(err))
			continue
		}
		sess.LastSave.Store(now.UnixNano())
	}
}

// KeepAliveSystem enforces the idle timeout: no inbound data for
// IdleTimeout disconnects the session (§4.4 Loaded: "keep-alive enforced
// via lastData").
type KeepAliveSystem struct {
	Registry    *registry.Registry
	IdleTimeout time.Duration
	Log         *zap.Logger
}

func (s *KeepAliveSystem) Phase() TickPhase { return PhaseTimedEvents }

func (s *KeepAliveSystem) Tick(now time.Time) {
	for _, sess := range s.Registry.ByClass(protocol.ClassClient, nil) {
		last := time.Unix(0, sess.LastData.Load())
		if sess.LastData.Load() != 0 && now.Sub(last) > s.IdleTimeout {
			s.Log.Info("idle timeout", zap.Uint64("session", sess.ID))
			sess.Close()
		}
	}
}

// PMCleanupSystem expires stale private-message state. The spec names "PM
// cleanup" among the core's timed responsibilities without detailing a
// data model for pending PMs beyond lastMessage. Tick neither reads nor
// updates lastMessage: it calls Evict for every client session with the
// cutoff now-MaxPMAge, and does nothing when Evict is nil.
type PMCleanupSystem struct {
	Registry   *registry.Registry
	MaxPMAge   time.Duration
	Evict      func(sess *session.Session, cutoff time.Time)
}

func (s *PMCleanupSystem) Phase() TickPhase { return PhaseTimedEvents }

func (s *PMCleanupSystem) Tick(now time.Time) {
	if s.Evict == nil {
		return
	}
	cutoff := now.Add(-s.MaxPMAge)
	for _, sess := range s.Registry.ByClass(protocol.ClassClient, nil) {
		s.Evict(sess, cutoff)
	}
}

// ReconnectTimeoutSystem disconnects Authenticated sessions that never
// reach Loaded within MaxNoActivity — "maxnoactivity" from §6 Configuration.
type ReconnectTimeoutSystem struct {
	Registry        *registry.Registry
	MaxNoActivity   time.Duration
	Log             *zap.Logger
	authenticatedAt map[uint64]time.Time
}

func (s *ReconnectTimeoutSystem) Phase() TickPhase { return PhaseTimedEvents }

func (s *ReconnectTimeoutSystem) Tick(now time.Time) {
	if s.authenticatedAt == nil {
		s.authenticatedAt = make(map[uint64]time.Time)
	}
	live := make(map[uint64]bool)
	for _, sess := range s.Registry.ByClass(protocol.ClassClient, nil) {
		if sess.Phase() != protocol.PhaseAuthenticated {
			continue
		}
		live[sess.ID] = true
		start, ok := s.authenticatedAt[sess.ID]
		if !ok {
			s.authenticatedAt[sess.ID] = now
			continue
		}
		if now.Sub(start) > s.MaxNoActivity {
			s.Log.Info("reconnection timeout, never reached Loaded", zap.Uint64("session", sess.ID))
			sess.Close()
		}
	}
	for id := range s.authenticatedAt {
		if !live[id] {
			delete(s.authenticatedAt, id)
		}
	}
}
